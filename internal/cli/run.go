package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/agent"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/config"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/llm/configbuilder"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/logging"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/observability"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/version"
)

// NewRunCmd wires the run command: open a benchmark session, play every
// selected task through the reasoning loop, and report scores.
func NewRunCmd(opts *Options) *cobra.Command {
	var submit bool
	var sessionName string
	var onlyTasks []string
	var skipTasks []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play a benchmark session task by task",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if submit {
				cfg.Benchmark.Submit = true
			}
			if sessionName != "" {
				cfg.Benchmark.SessionName = sessionName
			}
			cfg.Benchmark.IncludeTasks = append(cfg.Benchmark.IncludeTasks, onlyTasks...)
			cfg.Benchmark.SkipTasks = append(cfg.Benchmark.SkipTasks, skipTasks...)

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSession(ctx, cmd, cfg, logger)
		},
	}

	cmd.Flags().BoolVar(&submit, "submit", false, "Submit the session for final scoring after all tasks finish")
	cmd.Flags().StringVar(&sessionName, "name", "", "Override the session name")
	cmd.Flags().StringSliceVar(&onlyTasks, "only", nil, "Run only tasks with these spec IDs (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&skipTasks, "skip", nil, "Skip tasks with these spec IDs")
	return cmd
}

func runSession(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) error {
	registry, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Telemetry.OTLPEndpoint, version.Version)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	metrics := observability.NewMetrics()
	if cfg.Telemetry.MetricsEnabled {
		srv := observability.NewServer(cfg.Telemetry.MetricsAddr, metrics, logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Warn("telemetry listener failed", zap.Error(err))
			}
		}()
	}

	client := erc3.NewClient(cfg.Benchmark.BaseURL, cfg.Benchmark.APIKey,
		time.Duration(cfg.Benchmark.TimeoutSeconds)*time.Second)

	session, err := client.StartSession(ctx, erc3.StartSessionRequest{
		Benchmark:    cfg.Benchmark.Benchmark,
		Workspace:    cfg.Benchmark.Workspace,
		Name:         cfg.Benchmark.SessionName,
		Architecture: cfg.Benchmark.Architecture,
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	logger.Info("session started",
		zap.String("session", session.SessionID),
		zap.Int("tasks", len(session.Tasks)),
	)

	tasks := session.Tasks
	if len(tasks) == 0 {
		status, err := client.SessionStatus(ctx, session.SessionID)
		if err != nil {
			return fmt.Errorf("session status: %w", err)
		}
		tasks = status.Tasks
	}

	usage := func(ctx context.Context, report erc3.LLMCallReport) {
		if err := client.LogLLM(ctx, report); err != nil {
			logger.Warn("llm call report failed", zap.Error(err))
		}
	}

	out := cmd.OutOrStdout()
	byStatus := map[agent.Status]int{}
	played := 0
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !selectTask(task.SpecID, cfg.Benchmark.IncludeTasks, cfg.Benchmark.SkipTasks) {
			logger.Info("skipping task", zap.String("spec", task.SpecID))
			continue
		}
		played++

		if err := client.StartTask(ctx, task); err != nil {
			return fmt.Errorf("start task %s: %w", task.SpecID, err)
		}

		runner, err := agent.NewRunner(registry, client.TaskClient(task), agent.Options{
			Model:         cfg.Agent.Model,
			SubAgentModel: cfg.Agent.SubAgentModel,
			MaxSteps:      cfg.Agent.MaxSteps,
			MaxTokens:     cfg.Agent.MaxTokens,
			Metrics:       metrics,
			Usage:         usage,
			Logger:        logger.With(zap.String("task", task.SpecID)),
		})
		if err != nil {
			return fmt.Errorf("build runner: %w", err)
		}

		res, runErr := runner.Run(ctx, task)
		byStatus[res.Status]++
		if runErr != nil {
			logger.Error("task run failed", zap.String("spec", task.SpecID), zap.Error(runErr))
		}

		fmt.Fprintf(out, "%s: %s (%s) after %d steps\n", task.SpecID, res.Status, res.Outcome, res.Steps)
		if res.Message != "" {
			fmt.Fprintf(out, "  %s\n", res.Message)
		}

		result, err := client.CompleteTask(ctx, task)
		if err != nil {
			logger.Warn("complete task failed", zap.String("spec", task.SpecID), zap.Error(err))
			continue
		}
		if result.Eval != nil {
			fmt.Fprintf(out, "  score: %.2f\n", result.Eval.Score)
			if result.Eval.Logs != "" {
				fmt.Fprintf(out, "  eval: %s\n", result.Eval.Logs)
			}
		}
	}

	fmt.Fprintf(out, "played %d/%d tasks: %d completed, %d exhausted, %d fatal\n",
		played, len(tasks),
		byStatus[agent.StatusCompleted],
		byStatus[agent.StatusBudgetExhausted],
		byStatus[agent.StatusFatal],
	)

	if cfg.Benchmark.Submit {
		if err := client.SubmitSession(ctx, session.SessionID); err != nil {
			return fmt.Errorf("submit session: %w", err)
		}
		fmt.Fprintf(out, "session %s submitted\n", session.SessionID)
	}
	return nil
}

// selectTask applies the include/skip filters to a spec ID.
func selectTask(specID string, include, skip []string) bool {
	if slices.Contains(skip, specID) {
		return false
	}
	if len(include) == 0 {
		return true
	}
	return slices.Contains(include, specID)
}
