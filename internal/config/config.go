package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from coalesce.yml.
type ProjectConfig struct {
	RulesPath        string `yaml:"rulesPath,omitempty"`
	ReportPath       string `yaml:"reportPath,omitempty"`
	HistoryPath      string `yaml:"historyPath,omitempty"`
	ReasonEndpoint   string `yaml:"reasonEndpoint,omitempty"`
	MaxContextTokens int    `yaml:"maxContextTokens,omitempty"`
	Concurrency      int    `yaml:"concurrency,omitempty"`
	Batch            bool   `yaml:"batch,omitempty"`
	Verbose          bool   `yaml:"verbose,omitempty"`
}

// Load attempts to read coalesce.yml or coalesce.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"coalesce.yml", "coalesce.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
