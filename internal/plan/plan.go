// Package plan parses YAML run plans: a model identifier plus an ordered
// list of operations to dispatch through a wrapper.
package plan

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Step is one operation to dispatch: the (optionally qualified) operation
// name plus its positional and keyword arguments.
type Step struct {
	Call   string         `yaml:"call"`
	Args   []any          `yaml:"args"`
	Kwargs map[string]any `yaml:"kwargs"`
}

// Plan is a parsed run plan.
type Plan struct {
	Model       string   `yaml:"model"`
	Description string   `yaml:"description"`
	Modules     []string `yaml:"modules"`
	Steps       []Step   `yaml:"steps"`
}

// Load reads and validates a plan file.
func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, errors.Wrapf(err, "read plan %q", path)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, errors.Wrapf(err, "parse plan %q", path)
	}

	for i, step := range p.Steps {
		if step.Call == "" {
			return Plan{}, errors.Errorf("plan %q: step %d has no call", path, i+1)
		}
	}

	return p, nil
}
