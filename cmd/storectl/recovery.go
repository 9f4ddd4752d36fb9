package main

import (
	"context"
	"fmt"
	"strconv"

	"digital-store/internal/domain/order"
	"digital-store/internal/handler/dto/response"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type orderAction func(ctx context.Context, admin commands.AdminCommands, id uuid.UUID) (*order.Order, error)

func expireAction(ctx context.Context, admin commands.AdminCommands, id uuid.UUID) (*order.Order, error) {
	return admin.ForceExpire(ctx, id)
}

func releaseAction(ctx context.Context, admin commands.AdminCommands, id uuid.UUID) (*order.Order, error) {
	return admin.ForceRelease(ctx, id)
}

func redispatchAction(ctx context.Context, admin commands.AdminCommands, id uuid.UUID) (*order.Order, error) {
	return admin.Redispatch(ctx, id)
}

func refundAction(ctx context.Context, admin commands.AdminCommands, id uuid.UUID) (*order.Order, error) {
	return admin.Refund(ctx, id)
}

func orderActionCmd(use, short string, action orderAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [order-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, d deps) error {
				o, err := action(ctx, d.Admin, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), queries.NewOrderView(o))
			})
		},
	}
}

func retryJobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry-jobs [order-id]",
		Short: "Requeue the dead post-payment jobs of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, d deps) error {
				kinds, err := d.Admin.RetryJobs(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), response.FromJobKinds(kinds))
			})
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Replay payment events that were recorded but never applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, d deps) error {
				report, err := d.Admin.Reconcile(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), response.FromReconcileReport(report))
			})
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire every PENDING order past its deadline now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, d deps) error {
				n, err := d.Admin.Sweep(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), response.SweepResponse{Expired: n})
			})
		},
	}
}

func banCmd() *cobra.Command {
	var unban bool
	cmd := &cobra.Command{
		Use:   "ban [user-id]",
		Short: "Ban a user from purchasing and earning rewards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return withApp(cmd, func(ctx context.Context, d deps) error {
				if err := d.Users.SetBanned(ctx, userID, !unban); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d banned=%t\n", userID, !unban)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unban, "unban", false, "Lift the ban instead")
	return cmd
}
