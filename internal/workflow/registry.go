package workflow

import (
	"log"
	"os"
	"path/filepath"
)

// Registry holds the parsed workflow definitions for a repository,
// keyed by the item type each governs. It is built once when the
// repository is opened and passed by reference; there is no ambient
// global cache.
type Registry struct {
	byType map[string]*Config
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]*Config)}
}

// LoadDir parses every markdown file in dir as a potential workflow
// definition. Files that fail to parse are skipped with a warning so
// one bad definition never hides the rest. A missing directory is not
// an error: it simply means no workflows are configured.
func LoadDir(dir string) (*Registry, error) {
	r := NewRegistry()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		cfg, err := ParseFile(path)
		if err != nil {
			log.Printf("workflow: %v", err)
			continue
		}
		if cfg != nil {
			r.byType[cfg.AppliesTo] = cfg
		}
	}
	return r, nil
}

// Add registers a workflow under its applies-to type.
func (r *Registry) Add(cfg *Config) {
	r.byType[cfg.AppliesTo] = cfg
}

// ForType returns the workflow governing the given item type, or nil
// if none is defined (meaning all transitions are permitted).
func (r *Registry) ForType(itemType string) *Config {
	return r.byType[itemType]
}

// Types returns the item types that have a workflow defined.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	return out
}
