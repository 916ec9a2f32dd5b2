package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReplayCommand creates the replay command: one queue replay pass
// without the cache refresh of a full sync.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay pending operations against the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			report, err := eng.Replay(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "replay", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			if rootOpts.Format == "json" {
				return formatter.Success(report)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"replayed %d operation(s): %d succeeded, %d failed, %d skipped\n",
				report.Attempted, report.Succeeded, report.Failed, report.Skipped)
			return nil
		},
	}
}

// NewSyncCommand runs the full sync-and-refresh pass.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay the queue, then refresh server caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			report, err := eng.SyncNow(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "sync", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			if rootOpts.Format == "json" {
				return formatter.Success(report)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"sync complete: %d succeeded, %d failed, %d skipped\n",
				report.Succeeded, report.Failed, report.Skipped)
			return nil
		},
	}
}
