package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irepack/irepack/internal/config"
)

func importOptions() config.ImportOptions {
	return config.ImportOptions{
		Binary:        "iree-import-tf",
		ImportType:    "savedmodel_v1",
		ExportedNames: []string{"serving_default"},
	}
}

func TestImporterBuildArgs(t *testing.T) {
	tests := []struct {
		name     string
		opts     func(*config.ImportOptions)
		bytecode bool
		want     []string
	}{
		{
			name: "defaults",
			opts: func(*config.ImportOptions) {},
			want: []string{
				"--tf-import-type=savedmodel_v1",
				"--tf-savedmodel-exported-names=serving_default",
				"export/saved_model/1", "-o", "out.mlir",
			},
		},
		{
			name:     "bytecode variant",
			opts:     func(*config.ImportOptions) {},
			bytecode: true,
			want: []string{
				"--tf-import-type=savedmodel_v1",
				"--tf-savedmodel-exported-names=serving_default",
				"--output-format=mlir-bytecode",
				"export/saved_model/1", "-o", "out.mlir",
			},
		},
		{
			name: "non-default booleans",
			opts: func(o *config.ImportOptions) {
				lift := false
				o.LiftVariables = &lift
				o.UpgradeLegacy = true
				o.IncludeVariablesInInitializers = true
			},
			want: []string{
				"--tf-import-type=savedmodel_v1",
				"--tf-savedmodel-exported-names=serving_default",
				"--tf-savedmodel-lift-variables=false",
				"--tf-upgrade-legacy=true",
				"--tf-include-variables-in-initializers=true",
				"export/saved_model/1", "-o", "out.mlir",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := importOptions()
			tt.opts(&opts)

			importer := NewImporterWithRunner(opts, new(MockRunner))

			got := importer.buildArgs("export/saved_model/1", "out.mlir", tt.bytecode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImporterImport_Success(t *testing.T) {
	output := filepath.Join(t.TempDir(), "resnet50_text.mlir")

	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "iree-import-tf", mock.Anything, nil).
		Run(func(mock.Arguments) {
			require.NoError(t, os.WriteFile(output, []byte("module {}"), 0o644))
		}).
		Return([]byte(nil), []byte(nil), nil)

	importer := NewImporterWithRunner(importOptions(), runner)

	require.NoError(t, importer.Import(context.Background(), "export/saved_model/1", output, false))
	assert.FileExists(t, output)

	runner.AssertExpectations(t)
}

func TestImporterImport_NonZeroExitIsHardFailure(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "iree-import-tf", mock.Anything, nil).
		Return([]byte(nil), []byte("unsupported op"), errors.New("exit status 1"))

	importer := NewImporterWithRunner(importOptions(), runner)

	err := importer.Import(context.Background(), "export/saved_model/1", filepath.Join(t.TempDir(), "out.mlir"), false)
	assert.ErrorContains(t, err, "import failed")
}

func TestImporterImport_MissingArtifact(t *testing.T) {
	// Tool exits zero but writes nothing.
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "iree-import-tf", mock.Anything, nil).
		Return([]byte(nil), []byte(nil), nil)

	importer := NewImporterWithRunner(importOptions(), runner)

	err := importer.Import(context.Background(), "export/saved_model/1", filepath.Join(t.TempDir(), "out.mlir"), false)
	assert.ErrorContains(t, err, "produced no artifact")
}

func TestImporterImport_RemovesStaleOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.mlir")
	require.NoError(t, os.WriteFile(output, []byte("stale"), 0o644))

	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "iree-import-tf", mock.Anything, nil).
		Run(func(mock.Arguments) {
			// The stale artifact must already be gone when the tool runs.
			_, statErr := os.Stat(output)
			assert.True(t, os.IsNotExist(statErr))
			require.NoError(t, os.WriteFile(output, []byte("fresh"), 0o644))
		}).
		Return([]byte(nil), []byte(nil), nil)

	importer := NewImporterWithRunner(importOptions(), runner)

	require.NoError(t, importer.Import(context.Background(), "export/saved_model/1", output, false))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}
