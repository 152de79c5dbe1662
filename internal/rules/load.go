package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of a rule set.
type ruleFile struct {
	Rules []CompatibilityRule `yaml:"rules"`
}

// LoadRules reads a YAML rule file and returns its rules in file order.
// File order matters: later entries override earlier ones when indexed.
func LoadRules(path string) ([]CompatibilityRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}
	for i, r := range f.Rules {
		if r.TypeA == "" || r.TypeB == "" {
			return nil, fmt.Errorf("rules: entry %d in %s is missing type_a or type_b", i, path)
		}
	}
	return f.Rules, nil
}
