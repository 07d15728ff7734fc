package onnx

import (
	"context"
	"fmt"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/irepack/irepack/internal/backend"
	"github.com/irepack/irepack/internal/mapsafe"
	"github.com/irepack/irepack/internal/preprocess"
)

// Backend classifies in-process with an ONNX runtime session over a
// snapshot's .onnx artifact.
type Backend struct {
	numLabels int

	mu          sync.Mutex
	initialized bool
}

// NewBackend creates an ONNX backend producing numLabels logits.
func NewBackend(numLabels int) *Backend {
	return &Backend{numLabels: numLabels}
}

// Provider returns the backend identifier.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderONNX
}

// Infer loads the tensor file, binds it to a session over req.ModelPath,
// and returns the output logits.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	if err := b.ensureEnvironment(); err != nil {
		return nil, err
	}

	inputName := mapsafe.Get(req.Parameters, "input_name", "pixel_values")
	outputName := mapsafe.Get(req.Parameters, "output_name", "logits")

	data, err := preprocess.ReadBin(req.TensorPath)
	if err != nil {
		return nil, err
	}

	dims := make([]int64, len(req.Shape))
	elements := 1
	for i, d := range req.Shape {
		dims[i] = int64(d)
		elements *= d
	}
	if len(data) != elements {
		return nil, fmt.Errorf("tensor file has %d values, shape wants %d", len(data), elements)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(dims...), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(b.numLabels)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	session, err := ort.NewAdvancedSession(req.ModelPath,
		[]string{inputName}, []string{outputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	logits := make([]float32, b.numLabels)
	copy(logits, outputTensor.GetData())

	return &backend.Response{
		Logits: logits,
		Metadata: &backend.ResponseMetadata{
			Provider:  b.Provider(),
			Model:     req.ModelPath,
			Timestamp: time.Now(),
			BackendSpecific: map[string]any{
				"input_name":  inputName,
				"output_name": outputName,
			},
		},
	}, nil
}

// ensureEnvironment initializes the ONNX runtime once per process.
func (b *Backend) ensureEnvironment() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	b.initialized = true
	return nil
}

// Close tears down the ONNX runtime environment.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return nil
	}

	b.initialized = false
	return ort.DestroyEnvironment()
}
