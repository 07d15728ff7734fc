package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/irepack/irepack/internal/xfs"
)

const (
	compileTimeout = 10 * time.Minute

	// DefaultCompilerBinary is the toolchain's ahead-of-time compiler.
	DefaultCompilerBinary = "iree-compile"
)

// Compiler lowers an intermediate representation file to a loadable module.
type Compiler struct {
	executor *Executor
	target   string
	input    string
}

// NewCompiler creates a Compiler for the default CPU target.
func NewCompiler() (*Compiler, error) {
	executor, err := NewExecutor(DefaultCompilerBinary, compileTimeout)
	if err != nil {
		return nil, err
	}

	return &Compiler{
		executor: executor,
		target:   "llvm-cpu",
		input:    "stablehlo",
	}, nil
}

// NewCompilerWithRunner creates a Compiler with a custom command runner.
func NewCompilerWithRunner(runner CommandRunner) *Compiler {
	return &Compiler{
		executor: NewExecutorWithRunner(DefaultCompilerBinary, compileTimeout, runner),
		target:   "llvm-cpu",
		input:    "stablehlo",
	}
}

// Compile lowers mlirPath to modulePath.
func (c *Compiler) Compile(ctx context.Context, mlirPath, modulePath string) error {
	if err := xfs.RemoveIfPresent(modulePath); err != nil {
		return err
	}

	args := []string{
		fmt.Sprintf("--iree-hal-target-backends=%s", c.target),
		fmt.Sprintf("--iree-input-type=%s", c.input),
		mlirPath,
		"-o", modulePath,
	}

	slog.Info("Compiling module", "binary", DefaultCompilerBinary, "input", mlirPath, "output", modulePath)

	if _, err := c.executor.Execute(ctx, args, nil); err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	if _, err := os.Stat(modulePath); err != nil {
		return fmt.Errorf("compile reported success but produced no module at %s: %w", modulePath, err)
	}

	return nil
}
