package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YML(t *testing.T) {
	dir := t.TempDir()
	content := `rulesPath: rules.yml
reportPath: out/merge_report.json
reasonEndpoint: http://localhost:8900/rpc
maxContextTokens: 12000
concurrency: 8
batch: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coalesce.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "rules.yml", cfg.RulesPath)
	assert.Equal(t, "out/merge_report.json", cfg.ReportPath)
	assert.Equal(t, "http://localhost:8900/rpc", cfg.ReasonEndpoint)
	assert.Equal(t, 12000, cfg.MaxContextTokens)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.True(t, cfg.Batch)
	assert.False(t, cfg.Verbose)
}

func TestLoad_YamlExtensionFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coalesce.yaml"), []byte("verbose: true\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

func TestLoad_NoFile_ZeroConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coalesce.yml"), []byte("rulesPath: [unclosed"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}
