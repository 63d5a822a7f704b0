package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/gitpulse/ai/provider"
	"github.com/teranos/gitpulse/am"
	"github.com/teranos/gitpulse/db"
	"github.com/teranos/gitpulse/gitops"
	"github.com/teranos/gitpulse/logger"
	"github.com/teranos/gitpulse/message"
	"github.com/teranos/gitpulse/pulse"
	"github.com/teranos/gitpulse/server"
)

const shutdownTimeout = 10 * time.Second

// RunCmd starts the scheduler daemon
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scheduler daemon and control API",
	Long: `Start gitpulse in foreground mode.

The daemon will:
- Commit the configured repository on a jittered interval
- Generate messages with the local model, falling back to templates
- Serve status and pause/resume/trigger control over HTTP
- Run until interrupted (Ctrl+C), finishing any in-flight commit first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := am.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if repoPath, _ := cmd.Flags().GetString("repo"); repoPath != "" {
			cfg.Repository.Path = repoPath
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		database, err := db.Open(cfg.Database.Path, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		if err := db.Migrate(database, logger.Logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		repo, err := gitops.Open(cfg.Repository.Path, cfg.Repository.Remote, cfg.Repository.Branch, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to open repository %s: %w", cfg.Repository.Path, err)
		}

		// A missing model only disables the AI path; the template
		// fallback keeps commits flowing
		var generator provider.Generator
		if cfg.LocalInference.Enabled {
			generator, err = provider.NewGenerator(cfg)
			if err != nil {
				logger.Warnw("Local inference unavailable, using template messages only",
					"error", err)
				generator = nil
			}
		}

		composer := message.NewComposer(generator, cfg.Message.MaxLength, logger.Logger)
		store := pulse.NewStore(database)
		pipeline := pulse.NewPipeline(repo, composer, store, cfg, logger.Logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		scheduler := pulse.NewScheduler(ctx, pipeline, cfg, logger.Logger)
		srv := server.NewServer(cfg, scheduler, store, repo, generator, logger.Logger)
		scheduler.SetBroadcaster(srv)

		watcher := startConfigWatcher(scheduler, pipeline)

		scheduler.Start()

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- srv.Start()
		}()

		fmt.Printf("gitpulse daemon started\n")
		fmt.Printf("  Repository: %s\n", cfg.Repository.Path)
		fmt.Printf("  Interval: %ds (jitter %ds)\n", cfg.Schedule.IntervalSeconds, cfg.Schedule.JitterSeconds)
		fmt.Printf("  Push: %v\n", cfg.Push.Enabled)
		fmt.Printf("  API: http://localhost:%d\n", cfg.Server.EffectivePort())
		fmt.Printf("\nPress Ctrl+C for graceful shutdown\n\n")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigChan:
			fmt.Printf("\nShutting down...\n")
		case err := <-serverErr:
			if err != nil {
				logger.Errorw("HTTP server failed", "error", err)
			}
		}

		// Stop the scheduler first so an in-flight commit drains before
		// the API disappears
		scheduler.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warnw("HTTP server shutdown error", "error", err)
		}

		if watcher != nil {
			watcher.Stop()
		}

		fmt.Printf("gitpulse daemon stopped\n")
		return nil
	},
}

// startConfigWatcher wires hot reload of schedule and message settings.
// Returns nil when no project config file exists to watch.
func startConfigWatcher(scheduler *pulse.Scheduler, pipeline *pulse.Pipeline) *am.ConfigWatcher {
	configPath := am.UserConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		logger.Debugw("No user config file to watch", "path", configPath)
		return nil
	}

	watcher, err := am.NewConfigWatcher(configPath)
	if err != nil {
		logger.Warnw("Config hot reload disabled", "error", err)
		return nil
	}

	watcher.OnReload(func(newCfg *am.Config) error {
		scheduler.ApplyConfig(newCfg)
		pipeline.ApplyConfig(newCfg)
		return nil
	})
	watcher.Start()
	logger.Infow("Watching config for changes", "path", configPath)

	return watcher
}

func init() {
	RunCmd.Flags().String("repo", "", "Repository path (overrides repository.path from config)")
}
