package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `
version: "0.1.0"
providers:
  openai:
    type: openai
    base_url: https://api.openai.com
    api_key: dummy
    timeout: 30s
models:
  main:
    provider: openai
    model: gpt-4o
    temperature: 0
    max_tokens: 8192
    default: true
agent:
  model: main
  max_steps: 15
benchmark:
  workspace: acme
`

	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Models["main"].Provider)
	require.Equal(t, 15, cfg.Agent.MaxSteps)
	require.Equal(t, 16384, cfg.Agent.MaxTokens)
	require.Equal(t, "acme", cfg.Benchmark.Workspace)
	require.Equal(t, "https://erc3.dev/api", cfg.Benchmark.BaseURL)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	configYAML := `
providers:
  local:
    type: ollama
    base_url: http://localhost:11434
models:
  main:
    provider: local
    model: qwen2.5
    default: true
benchmark:
  workspace: acme
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o644))

	t.Setenv("SGRAGENT_AGENT_MAX_STEPS", "12")
	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 12, cfg.Agent.MaxSteps)
}

func TestValidateFailsOnUnknownProvider(t *testing.T) {
	cfg := Config{
		Providers: map[string]ProviderConfig{
			"openai": {Type: "openai"},
		},
		Models: map[string]ModelConfig{
			"broken": {Provider: "missing", Default: true},
		},
		Agent:     AgentConfig{MaxSteps: 20, MaxTokens: 1024},
		Benchmark: BenchmarkConfig{Workspace: "acme", TimeoutSeconds: 60},
	}

	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateFailsOnMissingWorkspace(t *testing.T) {
	cfg := Config{
		Providers: map[string]ProviderConfig{
			"openai": {Type: "openai"},
		},
		Models: map[string]ModelConfig{
			"main": {Provider: "openai", Default: true},
		},
		Agent:     AgentConfig{MaxSteps: 20, MaxTokens: 1024},
		Benchmark: BenchmarkConfig{TimeoutSeconds: 60},
	}

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "workspace")
}

func TestValidateFailsOnUnknownAgentModel(t *testing.T) {
	cfg := Config{
		Providers: map[string]ProviderConfig{
			"openai": {Type: "openai"},
		},
		Models: map[string]ModelConfig{
			"main": {Provider: "openai", Default: true},
		},
		Agent:     AgentConfig{Model: "ghost", MaxSteps: 20, MaxTokens: 1024},
		Benchmark: BenchmarkConfig{Workspace: "acme", TimeoutSeconds: 60},
	}

	err := cfg.Validate()
	require.Error(t, err)
}
