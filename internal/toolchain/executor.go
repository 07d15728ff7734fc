package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// CommandRunner is the interface for running commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// ExecCommandRunner uses os/exec.
type ExecCommandRunner struct{}

// Run runs a command.
func (ExecCommandRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	stdout, stderr, err = outBuf.Bytes(), errBuf.Bytes(), cmd.Run()
	return stdout, stderr, err
}

// Result is the structured outcome of a tool invocation.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Executor runs one external tool with a bounded timeout.
type Executor struct {
	runner  CommandRunner
	binary  string
	timeout time.Duration
}

// NewExecutor creates an executor for a tool resolved on PATH.
func NewExecutor(binary string, timeout time.Duration) (*Executor, error) {
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("tool not found: %w", err)
	}

	return &Executor{
		binary:  binary,
		timeout: timeout,
		runner:  ExecCommandRunner{},
	}, nil
}

// NewExecutorWithRunner creates an executor with a custom runner.
func NewExecutorWithRunner(binary string, timeout time.Duration, runner CommandRunner) *Executor {
	return &Executor{
		binary:  binary,
		timeout: timeout,
		runner:  runner,
	}
}

// Execute runs the tool and returns its structured result. A non-zero exit
// is an error carrying the captured stderr; the Result is returned in that
// case too so callers can inspect the output.
func (e *Executor) Execute(ctx context.Context, args []string, stdin io.Reader) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stdout, stderr, err := e.runner.Run(ctx, e.binary, args, stdin)

	result := &Result{
		Stdout: stdout,
		Stderr: stderr,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("%s exited with code %d: %w\nstderr: %s", e.binary, result.ExitCode, err, stderr)
		}
		result.ExitCode = -1
		return result, fmt.Errorf("failed to run %s: %w", e.binary, err)
	}

	return result, nil
}
