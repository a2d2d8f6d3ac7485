package simulation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode parses a simulation document. YAML is a superset of JSON, but
// JSON input goes through encoding/json so numbers keep their float64 form.
func Decode(b []byte, format string) (*Simulation, error) {
	var s Simulation
	switch strings.ToLower(format) {
	case "json", "":
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("decode simulation: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("decode simulation: %w", err)
		}
	default:
		return nil, fmt.Errorf("decode simulation: unsupported format %q", format)
	}
	if s.Config == nil {
		s.Config = Config{}
	}
	return &s, nil
}

// LoadFile reads a simulation from a .json, .yaml or .yml file.
func LoadFile(path string) (*Simulation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read simulation: %w", err)
	}
	s, err := Decode(b, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.ID == "" {
		s.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// LoadFiles reads several simulation files, in order.
func LoadFiles(paths ...string) ([]*Simulation, error) {
	out := make([]*Simulation, 0, len(paths))
	for _, p := range paths {
		s, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// WriteFile writes s as indented JSON.
func WriteFile(path string, s *Simulation) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode simulation: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
