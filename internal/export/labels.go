package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/irepack/irepack/internal/xfs"
)

// WriteLabels writes the class labels to path, one per line in index order,
// replacing any stale file.
func WriteLabels(path string, labels []string) error {
	if err := xfs.RemoveIfPresent(path); err != nil {
		return err
	}

	var sb strings.Builder
	for _, label := range labels {
		sb.WriteString(label)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write labels to %s: %w", path, err)
	}

	return nil
}
