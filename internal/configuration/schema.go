package configuration

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaJSON []byte

var (
	schema     *jsonschema.Schema
	schemaOnce sync.Once
	schemaErr  error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("config.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("config.schema.json")
	})
	return schema, schemaErr
}

// validate checks the raw YAML document against the configuration schema.
func validate(contents []byte) error {
	var doc any
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return err
	}
	if doc == nil {
		// empty file
		return nil
	}
	// the schema validator only understands JSON values
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert configuration to JSON: %w", err)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("failed to convert configuration to JSON: %w", err)
	}

	s, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to load configuration schema: %w", err)
	}
	if err := s.Validate(value); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("configuration validation failed: %s", validationErr)
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
