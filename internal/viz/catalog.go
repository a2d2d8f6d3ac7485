package viz

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultCatalog returns the built-in chart documents.
func DefaultCatalog() []map[string]any {
	docs, err := ParseCatalog(defaultCatalog, "yaml")
	if err != nil {
		panic(fmt.Sprintf("viz: embedded catalog: %v", err))
	}
	return docs
}

// ParseCatalog decodes a list of chart documents. format is "json",
// "yaml" or "yml".
func ParseCatalog(b []byte, format string) ([]map[string]any, error) {
	var docs []map[string]any
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(b, &docs); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(b, &docs); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return docs, nil
}

// LoadCatalog reads chart documents from path, or returns the built-in
// catalog when path is empty.
func LoadCatalog(path string) ([]map[string]any, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b, strings.TrimPrefix(filepath.Ext(path), "."))
}
