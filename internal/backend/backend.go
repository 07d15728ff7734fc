package backend

import (
	"context"
	"time"
)

// Provider is a string identifier for a classification backend.
type Provider string

const (
	// ProviderIREE classifies through the compiled-module toolchain.
	ProviderIREE Provider = "iree"

	// ProviderONNX classifies in-process through an ONNX runtime session.
	ProviderONNX Provider = "onnx"
)

// Backend runs a prepared model against a preprocessed tensor.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() Provider

	// Infer executes the model and returns the output logits.
	Infer(ctx context.Context, req *Request) (*Response, error)

	// Close cleans up resources.
	Close() error
}

// Request encapsulates all parameters for an inference call.
type Request struct {
	// ModelPath is the prepared model artifact: an intermediate
	// representation or compiled module for IREE, an .onnx file for ONNX.
	ModelPath string

	// TensorPath is the raw little-endian float32 tensor file.
	TensorPath string

	// Shape is the tensor shape, e.g. (1, 3, 224, 224).
	Shape []int

	// Parameters contains backend-specific inference parameters.
	Parameters map[string]any
}

// Response contains the result of an inference operation.
type Response struct {
	// Logits is the raw output vector.
	Logits []float32

	// Metadata contains backend-specific information.
	Metadata *ResponseMetadata
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	Provider        Provider       `json:"provider"`
	Model           string         `json:"model"`
	Timestamp       time.Time      `json:"timestamp"`
	BackendSpecific map[string]any `json:"backend_specific"`
}
