package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// timeRounding keeps printed durations readable.
const timeRounding = time.Millisecond

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-object-type sync state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := setup(); err != nil {
		return err
	}

	states, err := syncOrchestrator.Status(cmd.Context())
	if err != nil {
		return err
	}
	if len(states) == 0 {
		cmd.Println("No object types have been synchronised yet.")
		return nil
	}

	cmd.Printf("%-20s %-25s %10s %8s\n", "OBJECT TYPE", "LAST SYNC", "DOCUMENTS", "ERRORS")
	for _, state := range states {
		lastSync := "never"
		if !state.LastSync.IsZero() {
			lastSync = state.LastSync.Format(time.RFC3339)
		}
		cmd.Printf("%-20s %-25s %10d %8d\n", state.ScopeKey, lastSync, state.LastCount, state.ErrorCount)
	}
	return nil
}
