package schedule

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/synheart/consciousness-bridge/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Registry holds all available schedules
type Registry struct {
	schedules map[string]*Schedule
}

// NewRegistry creates a new schedule registry
func NewRegistry() *Registry {
	return &Registry{
		schedules: make(map[string]*Schedule),
	}
}

// NewBuiltinRegistry returns a registry preloaded with the embedded schedules
func NewBuiltinRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadBuiltin(); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse decodes and validates a schedule document
func Parse(data []byte) (*Schedule, error) {
	var schedule Schedule
	if err := yaml.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to parse schedule YAML: %w", err)
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	if schedule.Tier != "" {
		schedule.Tier, _ = models.ParseTier(string(schedule.Tier))
	}
	return &schedule, nil
}

// LoadFromFile loads a schedule from a YAML file
func (r *Registry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schedule file: %w", err)
	}

	schedule, err := Parse(data)
	if err != nil {
		return err
	}

	r.schedules[schedule.Name] = schedule
	return nil
}

// LoadFromDir loads all schedules from a directory
func (r *Registry) LoadFromDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read schedules directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := r.LoadFromFile(path); err != nil {
			return fmt.Errorf("failed to load schedule from %s: %w", path, err)
		}
	}

	return nil
}

// LoadFromFS loads schedules from dir inside fsys
func (r *Registry) LoadFromFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read embedded schedules: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		// embed paths always use forward slashes
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read embedded file %s: %w", p, err)
		}

		schedule, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		r.schedules[schedule.Name] = schedule
	}

	return nil
}

// LoadBuiltin loads the schedules compiled into the binary
func (r *Registry) LoadBuiltin() error {
	return r.LoadFromFS(builtinFS, "builtin")
}

// Get retrieves a schedule by name
func (r *Registry) Get(name string) (*Schedule, error) {
	schedule, ok := r.schedules[name]
	if !ok {
		return nil, fmt.Errorf("schedule '%s' not found", name)
	}
	return schedule, nil
}

// List returns all schedule names in sorted order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.schedules))
	for name := range r.schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListWithDescriptions returns all schedules with their descriptions
func (r *Registry) ListWithDescriptions() map[string]string {
	result := make(map[string]string)
	for name, schedule := range r.schedules {
		result[name] = schedule.Description
	}
	return result
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
