package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxis-labs/bubblesync/internal/core/ports/driving"
)

var (
	syncFull   bool
	syncDryRun bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [object-type...]",
	Short: "Synchronise object types into the vector index",
	Long: `Pulls records for the given object types and reconciles the vector
index with them. Without arguments, every configured object type is
synchronised. Incremental by default: only records modified since the
last successful sync are fetched.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "re-fetch everything and prune chunks of deleted records")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "fetch, map and chunk but write nothing")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}

	objectTypes := args
	if len(objectTypes) == 0 {
		objectTypes = appConfig.ObjectTypes
	}
	if len(objectTypes) == 0 {
		return errors.New("no object types configured")
	}

	report, err := syncOrchestrator.Run(cmd.Context(), objectTypes, driving.RunOptions{
		Full:   syncFull,
		DryRun: syncDryRun,
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printReport(cmd, report)

	// A run that indexed nothing at all is a failure; partial success is not.
	if report.TotalDocuments() == 0 && !syncDryRun {
		return errors.New("no documents were indexed")
	}
	return nil
}

func printReport(cmd *cobra.Command, report *driving.RunReport) {
	for _, res := range report.Results {
		mode := "incremental"
		if res.Full {
			mode = "full"
		}
		if res.State == driving.ScopeDone {
			cmd.Printf("%s: %d records -> %d documents, %d chunks (%s, +%d ~%d -%d =%d, %d dropped)\n",
				res.ObjectType, res.Records, res.Documents, res.Chunks, mode,
				res.Write.Added, res.Write.Updated, res.Write.Deleted, res.Write.Skipped,
				res.Dropped)
		} else {
			cmd.Printf("%s: failed during %s\n", res.ObjectType, res.State)
		}
	}
	for _, scopeErr := range report.Errors {
		cmd.PrintErrf("error: %s: %v\n", scopeErr.ObjectType, scopeErr.Err)
	}
	cmd.Printf("run %s finished in %s: %d documents, %d chunks written\n",
		report.RunID,
		report.FinishedAt.Sub(report.StartedAt).Round(timeRounding),
		report.TotalDocuments(),
		report.TotalChunksWritten(),
	)
}
