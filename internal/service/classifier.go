package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/irepack/irepack/internal/backend"
	"github.com/irepack/irepack/internal/model"
)

// ErrNoLogits indicates the backend returned an empty output vector.
var ErrNoLogits = errors.New("backend returned no logits")

// Result is a classified image: the winning label and its raw score.
type Result struct {
	Label    string                    `json:"label"`
	Index    int                       `json:"index"`
	Score    float32                   `json:"score"`
	Metadata *backend.ResponseMetadata `json:"metadata,omitempty"`
}

// Classifier resolves a backend and a model and maps logits to a label.
type Classifier struct {
	backends *backend.Registry
	models   *model.Registry
}

// NewClassifier creates a new Classifier service.
func NewClassifier(backends *backend.Registry, models *model.Registry) *Classifier {
	return &Classifier{
		backends: backends,
		models:   models,
	}
}

// Classify runs the prepared model against the preprocessed tensor and
// returns the highest-scoring label.
func (s *Classifier) Classify(ctx context.Context, provider backend.Provider, modelID string, req *backend.Request) (*Result, error) {
	b, ok := s.backends.Get(provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrNotFound, provider)
	}

	m, ok := s.models.Get(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, modelID)
	}

	labels, err := m.Card.Labels()
	if err != nil {
		return nil, err
	}

	resp, err := b.Infer(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Logits) == 0 {
		return nil, ErrNoLogits
	}

	index := argmax(resp.Logits)
	if index >= len(labels) {
		return nil, fmt.Errorf("logit index %d out of range for %d labels", index, len(labels))
	}

	return &Result{
		Label:    labels[index],
		Index:    index,
		Score:    resp.Logits[index],
		Metadata: resp.Metadata,
	}, nil
}

func argmax(values []float32) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
