package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadKnowledgeFile reads an ordered sequence of knowledge records from a
// YAML or JSON file. Duplicate questions are preserved in order; the sync
// layer resolves them last-write-wins.
func LoadKnowledgeFile(path string) ([]KnowledgeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge corpus: %w", err)
	}

	var records []KnowledgeRecord
	if err := unmarshalByExt(path, data, &records); err != nil {
		return nil, fmt.Errorf("parsing knowledge corpus %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// LoadExamplesFile reads an ordered sequence of example records from a
// YAML or JSON file.
func LoadExamplesFile(path string) ([]ExampleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading examples corpus: %w", err)
	}

	var records []ExampleRecord
	if err := unmarshalByExt(path, data, &records); err != nil {
		return nil, fmt.Errorf("parsing examples corpus %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

func unmarshalByExt(path string, data []byte, out interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported corpus format %q (want .yaml, .yml, or .json)", filepath.Ext(path))
	}
}
