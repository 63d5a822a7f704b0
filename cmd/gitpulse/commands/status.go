package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/gitpulse/server"
)

// StatusCmd shows the running daemon's state
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's state",
	Long: `Query the daemon's control API and display the scheduler state,
the most recent commit outcome, and repository and AI availability.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var status server.StatusResponse
		if err := getJSON(cmd, "/api/status", &status); err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			output, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(output))
			return nil
		}

		renderStatus(&status)
		return nil
	},
}

func renderStatus(status *server.StatusResponse) {
	pterm.DefaultHeader.Printf("gitpulse %s", status.Version)
	pterm.Println()

	switch {
	case status.Paused:
		pterm.Warning.Println("Schedule paused")
	case status.NextFireAt != nil:
		pterm.Info.Printf("Next commit in %s", time.Until(*status.NextFireAt).Round(time.Second))
		pterm.Println()
	default:
		pterm.Info.Printf("State: %s", status.State)
		pterm.Println()
	}

	pterm.Printf("  Repository: %s", status.Repository.Path)
	pterm.Println()
	if status.Repository.Branch != "" {
		pterm.Printf("  Branch: %s", status.Repository.Branch)
		pterm.Println()
	}
	pterm.Printf("  Interval: %ds (jitter %ds)", status.IntervalSeconds, status.JitterSeconds)
	pterm.Println()

	if status.AI.Enabled {
		health := "unreachable"
		if status.AI.Healthy {
			health = "healthy"
		}
		pterm.Printf("  Model: %s (%s)", status.AI.Model, health)
	} else {
		pterm.Printf("  Model: disabled (template messages)")
	}
	pterm.Println()

	if status.Memory.MemoryTotalGB > 0 {
		pterm.Printf("  Memory: %.1f/%.1fGB (%.0f%%)",
			status.Memory.MemoryUsedGB, status.Memory.MemoryTotalGB, status.Memory.MemoryPercent)
		pterm.Println()
	}

	last := status.LastOutcome
	if last == nil {
		pterm.Println()
		pterm.Info.Println("No commit attempts yet")
		return
	}

	pterm.Println()
	switch {
	case last.Success && last.PushFailed:
		pterm.Warning.Printf("Last commit %s succeeded but push failed", shortHash(last.CommitHash))
	case last.Success:
		pterm.Success.Printf("Last commit %s", shortHash(last.CommitHash))
	case last.ErrorKind == "no_changes":
		pterm.Info.Printf("Last attempt found no changes")
	default:
		pterm.Error.Printf("Last attempt failed (%s)", last.ErrorKind)
	}
	pterm.Println()
	if last.Message != "" {
		pterm.Printf("  Message: %s", last.Message)
		pterm.Println()
	}
	pterm.Printf("  At: %s", last.Timestamp.Local().Format("2006-01-02 15:04:05"))
	pterm.Println()
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func init() {
	StatusCmd.Flags().BoolP("json", "j", false, "Output status as JSON")
	addPortFlag(StatusCmd)
}
