package config

import (
	_ "embed"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/synadapt/internal/xfs"
)

//go:embed schema.json
var schemaJSON string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("schema.json", schemaJSON)
})

// Error definitions for the config package.
var (
	ErrInvalid = errors.New("config validation failed")
)

// LoadAndValidate reads the file at path, validates it against the embedded
// schema and returns it merged over Default.
func LoadAndValidate(path string) (*Config, error) {
	data, err := os.ReadFile(xfs.ExpandTilde(path))
	if err != nil {
		return nil, errors.Wrap(err, "config: failed to read config")
	}

	return Parse(data)
}

// Parse validates and decodes a YAML document.
func Parse(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "config: invalid YAML")
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, errors.Wrap(err, "config: failed to compile schema")
	}

	if err := schema.Validate(raw); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "config: validation failed"), ErrInvalid)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "config: failed to unmarshal into Config struct")
	}

	config.Loader.Library = xfs.ExpandTilde(config.Loader.Library)
	config.Log.File = xfs.ExpandTilde(config.Log.File)

	return config, nil
}

// LoadOrDefault is LoadAndValidate returning Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadAndValidate(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
