// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

// SaveCatalog stamps LastUpdated, sorts wizards and activities by id and writes
// indented JSON.
func SaveCatalog(path string, c *Catalog) error {
	c.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	sort.Slice(c.Wizards, func(i, j int) bool { return c.Wizards[i].ID < c.Wizards[j].ID })
	sort.Slice(c.Activities, func(i, j int) bool { return c.Activities[i].ID < c.Activities[j].ID })

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Validate checks ids are unique and every wizard's steps are numbered 1..n.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for _, w := range c.Wizards {
		if w.ID == "" {
			return fmt.Errorf("wizard without id")
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate wizard %q", w.ID)
		}
		seen[w.ID] = true
		if len(w.Steps) == 0 {
			return fmt.Errorf("wizard %q has no steps", w.ID)
		}
		for i, s := range w.Steps {
			if s.Order != i+1 {
				return fmt.Errorf("wizard %q: step %q has order %d, want %d", w.ID, s.ID, s.Order, i+1)
			}
		}
	}

	tasks := make(map[string]bool)
	for _, a := range c.Activities {
		if a.TaskType == "" {
			return fmt.Errorf("activity %q has no task type", a.ID)
		}
		if tasks[a.TaskType] {
			return fmt.Errorf("duplicate task type %q", a.TaskType)
		}
		tasks[a.TaskType] = true
	}
	return nil
}

func (c *Catalog) FindWizard(id string) (*Wizard, bool) {
	for i := range c.Wizards {
		if c.Wizards[i].ID == id {
			return &c.Wizards[i], true
		}
	}
	return nil, false
}
