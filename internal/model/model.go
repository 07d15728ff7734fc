package model

import (
	"time"

	"github.com/irepack/irepack/internal/config"
	"github.com/irepack/irepack/internal/hub"
)

// Status is the current lifecycle state of a model snapshot.
type Status string

const (
	// StatusPending indicates that the snapshot has not been fetched.
	StatusPending Status = "pending"

	// StatusFetching indicates that the snapshot is being downloaded.
	StatusFetching Status = "fetching"

	// StatusReady indicates that the snapshot and its metadata are loaded.
	StatusReady Status = "ready"

	// StatusFailed indicates that fetching or parsing failed.
	StatusFailed Status = "failed"
)

// Instance is a fetched model: its snapshot location plus the parsed card
// and preprocessor configuration.
type Instance struct {
	Config    *config.ModelConfig  `json:"config"`
	Card      *hub.Card            `json:"-"`
	Processor *hub.ProcessorConfig `json:"-"`
	FetchedAt *time.Time           `json:"fetched_at,omitempty"`
	ID        string               `json:"id"`
	Path      string               `json:"-"`
	Status    Status               `json:"status"`
	Error     string               `json:"error,omitempty"`
}

// NewInstance creates a new model instance.
func NewInstance(cfg *config.ModelConfig, id, path string) *Instance {
	return &Instance{
		ID:     id,
		Path:   path,
		Config: cfg,
		Status: StatusPending,
	}
}

// SetStatus sets the status of the model instance.
func (mi *Instance) SetStatus(status Status) {
	mi.Status = status
	if status == StatusReady {
		now := time.Now()
		mi.FetchedAt = &now
	}
}

// SetError sets the error associated with the model instance.
func (mi *Instance) SetError(err error) {
	mi.Error = err.Error()
}
