package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Get and Remove for unknown workflow names.
var ErrNotFound = errors.New("workflow not found")

// ErrExists is returned by Add when a workflow with the same name is
// already defined.
var ErrExists = errors.New("workflow already exists")

// yamlWorkflow is the on-disk schema. Durations are whole seconds.
type yamlWorkflow struct {
	WorkDuration      int  `yaml:"work_duration"`
	BreakDuration     int  `yaml:"break_duration"`
	LongBreakDuration int  `yaml:"long_break_duration"`
	LongBreakInterval int  `yaml:"long_break_interval"`
	Repeat            bool `yaml:"repeat"`
}

// Library holds the named workflows defined by the user. The default
// workflow is always present even when the file on disk is empty.
type Library struct {
	path      string
	workflows map[string]Workflow
}

// NewLibrary loads workflows.yaml from the tomatod config directory.
// An absent file yields a library containing only the default workflow.
func NewLibrary() (*Library, error) {
	dir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	return LoadLibrary(filepath.Join(dir, "workflows.yaml"))
}

// LoadLibrary loads the library at an explicit path.
func LoadLibrary(path string) (*Library, error) {
	lib := &Library{
		path:      path,
		workflows: map[string]Workflow{"default": Default()},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lib, nil
		}
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}

	var raw map[string]yamlWorkflow
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing workflow file: %w", err)
	}
	for name, y := range raw {
		lib.workflows[name] = fromYAML(name, y)
	}
	return lib, nil
}

// configDir returns the tomatod-specific XDG config directory.
// Path: $XDG_CONFIG_HOME/tomatod or ~/.config/tomatod
func configDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "tomatod"), nil
}

// Get returns the workflow with the given name.
func (l *Library) Get(name string) (Workflow, error) {
	w, ok := l.workflows[name]
	if !ok {
		return Workflow{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return w, nil
}

// List returns all workflows sorted by name.
func (l *Library) List() []Workflow {
	names := make([]string, 0, len(l.workflows))
	for name := range l.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Workflow, 0, len(names))
	for _, name := range names {
		out = append(out, l.workflows[name])
	}
	return out
}

// Add registers a new workflow and saves the library.
func (l *Library) Add(w Workflow) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if _, ok := l.workflows[w.Name]; ok {
		return fmt.Errorf("%w: %q", ErrExists, w.Name)
	}
	l.workflows[w.Name] = w
	return l.save()
}

// Remove deletes a workflow by name and saves the library. The default
// workflow cannot be removed.
func (l *Library) Remove(name string) error {
	if name == "default" {
		return errors.New("the default workflow cannot be removed")
	}
	if _, ok := l.workflows[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(l.workflows, name)
	return l.save()
}

func (l *Library) save() error {
	raw := make(map[string]yamlWorkflow, len(l.workflows))
	for name, w := range l.workflows {
		if name == "default" {
			continue
		}
		raw[name] = toYAML(w)
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling workflow file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("writing workflow file: %w", err)
	}
	return nil
}

func fromYAML(name string, y yamlWorkflow) Workflow {
	return Workflow{
		Name:              name,
		WorkDuration:      time.Duration(y.WorkDuration) * time.Second,
		BreakDuration:     time.Duration(y.BreakDuration) * time.Second,
		LongBreakDuration: time.Duration(y.LongBreakDuration) * time.Second,
		LongBreakInterval: y.LongBreakInterval,
		Repeat:            y.Repeat,
	}
}

func toYAML(w Workflow) yamlWorkflow {
	return yamlWorkflow{
		WorkDuration:      int(w.WorkDuration / time.Second),
		BreakDuration:     int(w.BreakDuration / time.Second),
		LongBreakDuration: int(w.LongBreakDuration / time.Second),
		LongBreakInterval: w.LongBreakInterval,
		Repeat:            w.Repeat,
	}
}
