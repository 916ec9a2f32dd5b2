package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/tillsync/internal/model"
)

// NewQueueCommand creates the queue inspection command group.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the pending-operation queue",
	}
	cmd.AddCommand(newQueueListCommand(rootOpts))
	cmd.AddCommand(newQueueRetryCommand(rootOpts))
	return cmd
}

func newQueueListCommand(rootOpts *RootOptions) *cobra.Command {
	var failed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued operations in replay order",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			var ops []model.PendingOperation
			if failed {
				ops, err = eng.ListFailedOperations(cmd.Context())
			} else {
				ops, err = eng.ListPendingOperations(cmd.Context())
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "list operations", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(ops)
			}
			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
				return nil
			}
			for _, op := range ops {
				line := fmt.Sprintf("#%d  %-22s %-6s %s  retries=%d", op.ID, op.Type, op.Method, op.Endpoint, op.RetryCount)
				if op.Error != "" {
					line += "  error=" + op.Error
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failed, "failed", false, "list failed operations instead of pending ones")
	return cmd
}

func newQueueRetryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Reset a failed operation for the next replay pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "parse operation id", err)
			}

			eng, closer, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			if err := eng.RetryOperation(cmd.Context(), id); err != nil {
				return WrapExitError(ExitFailure, "retry operation", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "operation %d reset to pending\n", id)
			return nil
		},
	}
}
