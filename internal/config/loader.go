package config

import (
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

// LoadAndValidate loads the configuration, validates it against the JSON
// schema, and fills unset fields with defaults.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into Config struct: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

// applyDefaults fills unset fields with the stock pipeline values.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Model.Repo == "" {
		c.Model.Repo = defaults.Model.Repo
	}
	if c.Pipeline.ExportDir == "" {
		c.Pipeline.ExportDir = defaults.Pipeline.ExportDir
	}
	if c.Pipeline.LabelsFile == "" {
		c.Pipeline.LabelsFile = defaults.Pipeline.LabelsFile
	}
	if c.Pipeline.TextOutput == "" {
		c.Pipeline.TextOutput = defaults.Pipeline.TextOutput
	}
	if c.Pipeline.BytecodeFile == "" {
		c.Pipeline.BytecodeFile = defaults.Pipeline.BytecodeFile
	}
	if c.Import.Binary == "" {
		c.Import.Binary = defaults.Import.Binary
	}
	if c.Import.ImportType == "" {
		c.Import.ImportType = defaults.Import.ImportType
	}
	if len(c.Import.ExportedNames) == 0 {
		c.Import.ExportedNames = defaults.Import.ExportedNames
	}
	if c.Classify.Backend == "" {
		c.Classify.Backend = defaults.Classify.Backend
	}
}
