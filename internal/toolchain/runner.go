package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	runTimeout = 2 * time.Minute

	// DefaultRunnerBinary executes a compiled module.
	DefaultRunnerBinary = "iree-run-module"
)

// Runner executes a serving function of a compiled module against a raw
// tensor file and parses the printed result buffer.
type Runner struct {
	executor *Executor
	device   string
}

// NewRunner creates a Runner for the local CPU device.
func NewRunner() (*Runner, error) {
	executor, err := NewExecutor(DefaultRunnerBinary, runTimeout)
	if err != nil {
		return nil, err
	}

	return &Runner{executor: executor, device: "local-task"}, nil
}

// NewRunnerWithRunner creates a Runner with a custom command runner.
func NewRunnerWithRunner(runner CommandRunner) *Runner {
	return &Runner{
		executor: NewExecutorWithRunner(DefaultRunnerBinary, runTimeout, runner),
		device:   "local-task",
	}
}

// Invoke runs function in modulePath, feeding the raw float32 tensor at
// tensorPath with the given shape, and returns the output values.
func (r *Runner) Invoke(ctx context.Context, modulePath, function string, shape []int, tensorPath string) ([]float32, error) {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}

	args := []string{
		fmt.Sprintf("--module=%s", modulePath),
		fmt.Sprintf("--device=%s", r.device),
		fmt.Sprintf("--function=%s", function),
		fmt.Sprintf("--input=%sxf32=@%s", strings.Join(dims, "x"), tensorPath),
	}

	slog.Info("Running module", "binary", DefaultRunnerBinary, "function", function, "input", tensorPath)

	result, err := r.executor.Execute(ctx, args, nil)
	if err != nil {
		return nil, fmt.Errorf("module run failed: %w", err)
	}

	values, err := ParseResultBuffer(result.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse module output: %w", err)
	}

	return values, nil
}

// ParseResultBuffer extracts the float32 values from the tool's printed
// result, e.g. "1x1000xf32=[[-1.25 0.5 ...]]".
func ParseResultBuffer(stdout []byte) ([]float32, error) {
	for _, line := range strings.Split(string(stdout), "\n") {
		idx := strings.Index(line, "xf32=")
		if idx < 0 {
			continue
		}

		payload := line[idx+len("xf32="):]
		payload = strings.NewReplacer("[", " ", "]", " ").Replace(payload)

		fields := strings.Fields(payload)
		if len(fields) == 0 {
			continue
		}

		values := make([]float32, 0, len(fields))
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("unexpected value %q in result buffer: %w", field, err)
			}
			values = append(values, float32(v))
		}

		return values, nil
	}

	return nil, fmt.Errorf("no result buffer in output")
}
