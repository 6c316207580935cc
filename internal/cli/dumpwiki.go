package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/logging"
	"github.com/unki2aut/martin-sgr-agent-erc3/internal/wiki"
)

// NewDumpWikiCmd downloads the wiki of the first session task into a local
// directory, for inspecting benchmark environments offline.
func NewDumpWikiCmd(opts *Options) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "dump-wiki",
		Short: "Download the workspace wiki to local disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := erc3.NewClient(cfg.Benchmark.BaseURL, cfg.Benchmark.APIKey,
				time.Duration(cfg.Benchmark.TimeoutSeconds)*time.Second)

			session, err := client.StartSession(ctx, erc3.StartSessionRequest{
				Benchmark:    cfg.Benchmark.Benchmark,
				Workspace:    cfg.Benchmark.Workspace,
				Name:         cfg.Benchmark.SessionName + "-wiki-dump",
				Architecture: cfg.Benchmark.Architecture,
			})
			if err != nil {
				return fmt.Errorf("start session: %w", err)
			}
			if len(session.Tasks) == 0 {
				return fmt.Errorf("session %s has no tasks to read the wiki through", session.SessionID)
			}

			task := session.Tasks[0]
			if err := client.StartTask(ctx, task); err != nil {
				return fmt.Errorf("start task %s: %w", task.SpecID, err)
			}

			written, err := wiki.Dump(ctx, client.TaskClient(task), dir, logger)
			if err != nil {
				return fmt.Errorf("dump wiki: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d wiki pages to %s\n", written, dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "wiki-dump", "Target directory for the downloaded pages")
	return cmd
}
