package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/store"
)

// NewOrdersCommand creates the local order inspection command group.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect locally stored orders",
	}
	cmd.AddCommand(newOrdersListCommand(rootOpts))
	return cmd
}

func newOrdersListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		unsynced  bool
		orderType string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders from the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			filter := store.OrderFilter{Type: model.OrderType(orderType)}
			if unsynced {
				f := false
				filter.Synced = &f
			}

			orders, err := eng.ListOrders(cmd.Context(), filter)
			if err != nil {
				return WrapExitError(ExitCommandError, "list orders", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			if rootOpts.Format == "json" {
				return formatter.Success(orders)
			}
			if len(orders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no orders")
				return nil
			}
			for _, o := range orders {
				synced := "synced"
				if !o.Synced {
					synced = "unsynced"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-10s %-10s %s/%s/%s  %s\n",
					o.ID, o.OrderNumber, o.OrderType,
					o.OrderStatus, o.PaymentStatus, o.DeliveryStatus, synced)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unsynced, "unsynced", false, "only orders awaiting server acknowledgement")
	cmd.Flags().StringVar(&orderType, "type", "", "filter by order type (dine_in|takeout|delivery)")
	return cmd
}

// NewStatusCommand summarizes the local store and connectivity state.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local store and queue summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closer, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			ctx := cmd.Context()
			unsynced, err := eng.Store().UnsyncedOrders(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "unsynced orders", err)
			}
			pending, err := eng.ListPendingOperations(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "pending operations", err)
			}
			failed, err := eng.ListFailedOperations(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed operations", err)
			}

			summary := map[string]any{
				"online":            eng.Online(),
				"unsyncedOrders":    len(unsynced),
				"pendingOperations": len(pending),
				"failedOperations":  len(failed),
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			if rootOpts.Format == "json" {
				return formatter.Success(summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "online: %v\n", eng.Online())
			fmt.Fprintf(cmd.OutOrStdout(), "unsynced orders: %d\n", len(unsynced))
			fmt.Fprintf(cmd.OutOrStdout(), "pending operations: %d\n", len(pending))
			fmt.Fprintf(cmd.OutOrStdout(), "failed operations: %d\n", len(failed))
			return nil
		},
	}
}
