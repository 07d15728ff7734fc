package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Error definitions for the hub package.
var (
	ErrNoLabels     = errors.New("model configuration has no id2label mapping")
	ErrSparseLabels = errors.New("id2label mapping is not densely indexed from 0")
)

// CardFilename is the model configuration file inside a snapshot.
const CardFilename = "config.json"

// Card is the subset of a snapshot's config.json the pipeline consumes.
type Card struct {
	Architectures []string          `json:"architectures"`
	ModelType     string            `json:"model_type"`
	NumChannels   int               `json:"num_channels"`
	ID2Label      map[string]string `json:"id2label"`
}

// LoadCard reads and parses config.json from a snapshot directory.
func LoadCard(snapshotPath string) (*Card, error) {
	data, err := os.ReadFile(filepath.Join(snapshotPath, CardFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to read model card: %w", err)
	}

	var card Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("failed to parse model card: %w", err)
	}

	return &card, nil
}

// Labels returns the class labels ordered by index. The mapping must be
// densely indexed from 0; a gap is an error.
func (c *Card) Labels() ([]string, error) {
	if len(c.ID2Label) == 0 {
		return nil, ErrNoLabels
	}

	labels := make([]string, len(c.ID2Label))
	for i := range labels {
		label, ok := c.ID2Label[strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("%w: missing index %d", ErrSparseLabels, i)
		}
		labels[i] = label
	}

	return labels, nil
}
