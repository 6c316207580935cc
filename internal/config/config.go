package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version   string                    `mapstructure:"version"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    map[string]ModelConfig    `mapstructure:"models"`
	Agent     AgentConfig               `mapstructure:"agent"`
	Benchmark BenchmarkConfig           `mapstructure:"benchmark"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Telemetry TelemetryConfig           `mapstructure:"telemetry"`
}

// ProviderConfig represents LLM provider configuration such as OpenAI, Ollama, or custom gateways.
type ProviderConfig struct {
	Type    string        `mapstructure:"type"`     // openai, openrouter, ollama, vllm, custom
	BaseURL string        `mapstructure:"base_url"` // API base URL
	APIKey  string        `mapstructure:"api_key"`  // optional API key
	Timeout time.Duration `mapstructure:"timeout"`  // request timeout
}

// ModelConfig binds a logical model name to a provider entry and model parameters.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Default     bool    `mapstructure:"default"`
}

// AgentConfig describes reasoning loop parameters.
type AgentConfig struct {
	Model         string `mapstructure:"model"`          // logical model for the main loop, empty = default
	SubAgentModel string `mapstructure:"subagent_model"` // model for sub-agents, empty = main model
	MaxSteps      int    `mapstructure:"max_steps"`
	MaxTokens     int    `mapstructure:"max_tokens"`
}

// BenchmarkConfig describes the ERC3 platform connection and run parameters.
type BenchmarkConfig struct {
	BaseURL        string   `mapstructure:"base_url"`
	APIKey         string   `mapstructure:"api_key"`
	Benchmark      string   `mapstructure:"benchmark"`
	Workspace      string   `mapstructure:"workspace"`
	SessionName    string   `mapstructure:"session_name"`
	Architecture   string   `mapstructure:"architecture"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	IncludeTasks   []string `mapstructure:"include_tasks"` // run only these spec IDs when non-empty
	SkipTasks      []string `mapstructure:"skip_tasks"`
	Submit         bool     `mapstructure:"submit"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// TelemetryConfig describes the metrics listener and trace export.
type TelemetryConfig struct {
	MetricsAddr    string `mapstructure:"metrics_addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"` // empty disables tracing
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: SGRAGENT_, dots replaced with underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SGRAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			v.SetConfigName("config.example")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("agent.max_steps", 20)
	v.SetDefault("agent.max_tokens", 16384)

	v.SetDefault("benchmark.base_url", "https://erc3.dev/api")
	v.SetDefault("benchmark.benchmark", "erc3")
	v.SetDefault("benchmark.session_name", "sgr-agent")
	v.SetDefault("benchmark.architecture", "next-step-loop")
	v.SetDefault("benchmark.timeout_seconds", 60)
	v.SetDefault("benchmark.submit", false)

	v.SetDefault("telemetry.metrics_addr", ":9090")
	v.SetDefault("telemetry.metrics_enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "")
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	if len(c.Models) == 0 {
		return errors.New("at least one model must be defined")
	}

	var defaultFound bool
	for name, p := range c.Providers {
		if p.Type == "" {
			return fmt.Errorf("provider %q must define type", name)
		}
	}

	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q must reference provider", name)
		}

		if _, ok := c.Providers[m.Provider]; !ok {
			return fmt.Errorf("model %q references unknown provider %q", name, m.Provider)
		}

		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("model %q temperature must be within [0,2]", name)
		}

		if m.MaxTokens < 0 {
			return fmt.Errorf("model %q max_tokens cannot be negative", name)
		}

		if m.Default {
			defaultFound = true
		}
	}

	if !defaultFound {
		return errors.New("at least one model should be marked as default")
	}

	for _, modelID := range []string{c.Agent.Model, c.Agent.SubAgentModel} {
		if strings.TrimSpace(modelID) == "" {
			continue
		}
		if _, ok := c.Models[modelID]; !ok {
			return fmt.Errorf("agent references unknown model %q", modelID)
		}
	}

	if c.Agent.MaxSteps <= 0 {
		return errors.New("agent.max_steps must be > 0")
	}
	if c.Agent.MaxTokens <= 0 {
		return errors.New("agent.max_tokens must be > 0")
	}

	if strings.TrimSpace(c.Benchmark.Workspace) == "" {
		return errors.New("benchmark.workspace must be set")
	}
	if c.Benchmark.TimeoutSeconds <= 0 {
		return errors.New("benchmark.timeout_seconds must be > 0")
	}

	return nil
}
