package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/irepack/irepack/internal/config"
	"github.com/irepack/irepack/internal/xfs"
)

const importTimeout = 5 * time.Minute

// Importer translates an exported model directory into the intermediate
// representation with the external import tool.
type Importer struct {
	executor *Executor
	opts     config.ImportOptions
}

// NewImporter creates an Importer for the tool named in the options.
func NewImporter(opts config.ImportOptions) (*Importer, error) {
	executor, err := NewExecutor(opts.Binary, importTimeout)
	if err != nil {
		return nil, err
	}

	return &Importer{executor: executor, opts: opts}, nil
}

// NewImporterWithRunner creates an Importer with a custom command runner.
func NewImporterWithRunner(opts config.ImportOptions, runner CommandRunner) *Importer {
	return &Importer{
		executor: NewExecutorWithRunner(opts.Binary, importTimeout, runner),
		opts:     opts,
	}
}

// Import runs the tool against exportPath and writes the representation to
// outputPath. Bytecode selects the binary output variant instead of text.
// A non-zero exit or a missing output artifact is a hard failure.
func (i *Importer) Import(ctx context.Context, exportPath, outputPath string, bytecode bool) error {
	if err := xfs.RemoveIfPresent(outputPath); err != nil {
		return err
	}

	args := i.buildArgs(exportPath, outputPath, bytecode)

	slog.Info("Importing exported model", "binary", i.opts.Binary, "args", args)

	result, err := i.executor.Execute(ctx, args, nil)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("import reported success but produced no artifact at %s: %w", outputPath, err)
	}

	slog.Info("Import finished", "output", outputPath, "exit_code", result.ExitCode)

	return nil
}

// buildArgs builds the import tool's command line. Boolean options are only
// emitted when they differ from the pinned tool version's defaults.
func (i *Importer) buildArgs(exportPath, outputPath string, bytecode bool) []string {
	args := []string{
		fmt.Sprintf("--tf-import-type=%s", i.opts.ImportType),
	}

	if len(i.opts.ExportedNames) > 0 {
		args = append(args, fmt.Sprintf("--tf-savedmodel-exported-names=%s", strings.Join(i.opts.ExportedNames, ",")))
	}

	if !i.opts.LiftVariablesEnabled() {
		args = append(args, "--tf-savedmodel-lift-variables=false")
	}
	if i.opts.UpgradeLegacy {
		args = append(args, "--tf-upgrade-legacy=true")
	}
	if i.opts.IncludeVariablesInInitializers {
		args = append(args, "--tf-include-variables-in-initializers=true")
	}

	if bytecode {
		args = append(args, "--output-format=mlir-bytecode")
	}

	return append(args, exportPath, "-o", outputPath)
}
