package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/agent"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm/configbuilder"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			if _, err := configbuilder.BuildRegistryFromConfig(cfg); err != nil {
				return fmt.Errorf("build registry: %w", err)
			}
			if _, err := agent.DecisionSchema(); err != nil {
				return fmt.Errorf("build decision schema: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Providers: %d, models: %d\n", len(cfg.Providers), len(cfg.Models))
			fmt.Fprintf(out, "Workspace: %s, max steps: %d, metrics: %v\n",
				cfg.Benchmark.Workspace, cfg.Agent.MaxSteps, cfg.Telemetry.MetricsEnabled)
			return nil
		},
	}
}
