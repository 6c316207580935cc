package configbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/config"
)

func TestBuildRegistryFromConfig(t *testing.T) {
	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{
			"openai": {Type: "openai", BaseURL: "https://api.openai.com", APIKey: "k"},
			"local":  {Type: "ollama", BaseURL: "http://localhost:11434"},
		},
		Models: map[string]config.ModelConfig{
			"main":   {Provider: "openai", Model: "gpt-4o", Default: true},
			"helper": {Provider: "local", Model: "qwen2.5"},
		},
	}

	reg, err := BuildRegistryFromConfig(cfg)
	require.NoError(t, err)

	p, route, err := reg.Resolve("")
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name())
	require.Equal(t, "gpt-4o", route.Model)

	p, _, err = reg.Resolve("helper")
	require.NoError(t, err)
	require.Equal(t, "local", p.Name())
}

func TestBuildRegistryRejectsUnknownProviderType(t *testing.T) {
	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{
			"weird": {Type: "telepathy"},
		},
		Models: map[string]config.ModelConfig{
			"main": {Provider: "weird", Model: "m", Default: true},
		},
	}

	_, err := BuildRegistryFromConfig(cfg)
	require.Error(t, err)
}
