package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// PauseCmd pauses the schedule
var PauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the schedule",
	Long: `Stop timer-driven commits until resumed. An in-flight commit attempt
is allowed to finish; pausing never cancels work mid-commit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postControl(cmd, "pause"); err != nil {
			return err
		}
		pterm.Success.Println("Pause accepted")
		return nil
	},
}

// ResumeCmd resumes a paused schedule
var ResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused schedule",
	Long:  `Resume scheduling; the next commit time is recomputed from now.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postControl(cmd, "resume"); err != nil {
			return err
		}
		pterm.Success.Println("Resume accepted")
		return nil
	},
}

// TriggerCmd requests an immediate commit attempt
var TriggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Request an immediate commit attempt",
	Long: `Ask the daemon to run one commit attempt now. The regular cadence is
unaffected; the next scheduled commit is computed from when this
attempt finishes. While paused, triggers are ignored unless
schedule.trigger_while_paused is enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postControl(cmd, "trigger"); err != nil {
			return err
		}
		pterm.Success.Println("Trigger accepted")
		return nil
	},
}

func init() {
	addPortFlag(PauseCmd)
	addPortFlag(ResumeCmd)
	addPortFlag(TriggerCmd)
}
