package config

// Config holds the main configuration for the pipeline.
type Config struct {
	Version  string         `json:"version"            yaml:"version"`
	Storage  StorageConfig  `json:"storage,omitempty"  yaml:"storage,omitempty"`
	Model    ModelConfig    `json:"model"              yaml:"model"`
	Pipeline PipelineConfig `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
	Import   ImportOptions  `json:"import,omitempty"   yaml:"import,omitempty"`
	Classify ClassifyConfig `json:"classify,omitempty" yaml:"classify,omitempty"`
}

// StorageConfig holds configuration for the model snapshot cache.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
}

// ModelConfig identifies the pretrained model to fetch from the hub.
type ModelConfig struct {
	Repo          string   `json:"repo"                     yaml:"repo"`
	Revision      string   `json:"revision,omitempty"       yaml:"revision,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
	Include       []string `json:"include,omitempty"        yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"        yaml:"exclude,omitempty"`
	MaxWorkers    int      `json:"max_workers,omitempty"    yaml:"max_workers,omitempty"`
	ForceDownload bool     `json:"force_download,omitempty" yaml:"force_download,omitempty"`
}

// PipelineConfig names the artifacts the pipeline produces.
type PipelineConfig struct {
	ExportDir    string `json:"export_dir,omitempty"    yaml:"export_dir,omitempty"`
	LabelsFile   string `json:"labels_file,omitempty"   yaml:"labels_file,omitempty"`
	TextOutput   string `json:"text_output,omitempty"   yaml:"text_output,omitempty"`
	BytecodeFile string `json:"bytecode_file,omitempty" yaml:"bytecode_file,omitempty"`

	// EmitBytecode additionally produces the binary bytecode variant.
	EmitBytecode bool `json:"emit_bytecode,omitempty" yaml:"emit_bytecode,omitempty"`
}

// ImportOptions enumerates the exact options accepted by the pinned version
// of the importer tool. New tool versions get a new set of fields here, not
// runtime feature probing.
type ImportOptions struct {
	Binary        string   `json:"binary,omitempty"         yaml:"binary,omitempty"`
	ImportType    string   `json:"import_type,omitempty"    yaml:"import_type,omitempty"`
	ExportedNames []string `json:"exported_names,omitempty" yaml:"exported_names,omitempty"`

	// LiftVariables defaults to true when unset, matching the tool.
	LiftVariables                  *bool `json:"lift_variables,omitempty"          yaml:"lift_variables,omitempty"`
	UpgradeLegacy                  bool  `json:"upgrade_legacy"                    yaml:"upgrade_legacy"`
	IncludeVariablesInInitializers bool  `json:"include_variables_in_initializers" yaml:"include_variables_in_initializers"`
}

// LiftVariablesEnabled resolves the tri-state lift_variables option.
func (o *ImportOptions) LiftVariablesEnabled() bool {
	if o.LiftVariables == nil {
		return true
	}
	return *o.LiftVariables
}

// ClassifyConfig configures the optional classification step.
type ClassifyConfig struct {
	Backend    string         `json:"backend,omitempty"    yaml:"backend,omitempty"`
	ModelFile  string         `json:"model_file,omitempty" yaml:"model_file,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}
