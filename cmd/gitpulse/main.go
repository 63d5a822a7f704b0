package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/gitpulse/cmd/gitpulse/commands"
	"github.com/teranos/gitpulse/logger"
)

var rootCmd = &cobra.Command{
	Use:   "gitpulse",
	Short: "gitpulse - jittered auto-commit scheduler with AI messages",
	Long: `gitpulse periodically commits your working tree on a jittered timer,
generating commit messages with a local language model and falling back
to deterministic templates when the model is unavailable.

Available commands:
  run     - Start the scheduler daemon and control API
  status  - Show the running daemon's state
  pause   - Pause the schedule
  resume  - Resume a paused schedule
  trigger - Request an immediate commit attempt
  version - Show version information

Examples:
  gitpulse run                 # Start the daemon in foreground
  gitpulse status              # Inspect the running daemon
  gitpulse trigger             # Commit now instead of waiting`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.PauseCmd)
	rootCmd.AddCommand(commands.ResumeCmd)
	rootCmd.AddCommand(commands.TriggerCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
