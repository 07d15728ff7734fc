package iree

import (
	"context"
	"strings"
	"time"

	"github.com/irepack/irepack/internal/backend"
	"github.com/irepack/irepack/internal/mapsafe"
	"github.com/irepack/irepack/internal/toolchain"
)

// Backend classifies by compiling the imported representation and running
// the serving function through the external toolchain.
type Backend struct {
	compiler *toolchain.Compiler
	runner   *toolchain.Runner
}

// NewBackend creates a Backend using the toolchain binaries on PATH.
func NewBackend() (*Backend, error) {
	compiler, err := toolchain.NewCompiler()
	if err != nil {
		return nil, err
	}

	runner, err := toolchain.NewRunner()
	if err != nil {
		return nil, err
	}

	return &Backend{compiler: compiler, runner: runner}, nil
}

// NewBackendWithTools creates a Backend with preconstructed tools.
func NewBackendWithTools(compiler *toolchain.Compiler, runner *toolchain.Runner) *Backend {
	return &Backend{compiler: compiler, runner: runner}
}

// Provider returns the backend identifier.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderIREE
}

// Infer compiles req.ModelPath when it is still an intermediate
// representation, then invokes the serving function on the tensor file.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	function := mapsafe.Get(req.Parameters, "function", "serving_default")

	modulePath := req.ModelPath
	if strings.HasSuffix(modulePath, ".mlir") {
		modulePath = strings.TrimSuffix(modulePath, ".mlir") + ".vmfb"
		if err := b.compiler.Compile(ctx, req.ModelPath, modulePath); err != nil {
			return nil, err
		}
	}

	logits, err := b.runner.Invoke(ctx, modulePath, function, req.Shape, req.TensorPath)
	if err != nil {
		return nil, err
	}

	return &backend.Response{
		Logits: logits,
		Metadata: &backend.ResponseMetadata{
			Provider:  b.Provider(),
			Model:     modulePath,
			Timestamp: time.Now(),
			BackendSpecific: map[string]any{
				"function": function,
			},
		},
	}, nil
}

// Close cleans up resources. The toolchain holds none between invocations.
func (b *Backend) Close() error {
	return nil
}
