package viz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Renderer displays a visualization on a named target.
type Renderer interface {
	Render(target string, v *Visualization) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(target string, v *Visualization) error

// Render calls fn.
func (fn RendererFunc) Render(target string, v *Visualization) error {
	return fn(target, v)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DirRenderer writes each visualization to <Dir>/<target>.json.
type DirRenderer struct {
	Dir string
}

// Render writes v as indented JSON.
func (d DirRenderer) Render(target string, v *Visualization) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", target, err)
	}
	name := unsafeName.ReplaceAllString(target, "_") + ".json"
	if err := os.WriteFile(filepath.Join(d.Dir, name), b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
