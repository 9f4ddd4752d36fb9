package main

import (
	"context"

	"digital-store/internal/handler/dto/response"
	"digital-store/internal/usecase/queries"

	"github.com/spf13/cobra"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect orders",
	}
	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(ordersGetCmd())
	cmd.AddCommand(ordersStatsCmd())
	cmd.AddCommand(ordersRewardsCmd())
	return cmd
}

func ordersListCmd() *cobra.Command {
	var (
		status string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, optionally filtered by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, d deps) error {
				n := queries.ClampLimit(limit)
				views, err := d.Queries.List(ctx, status, n, offset)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), response.OrderListResponse{
					Orders: views, Limit: n, Offset: offset,
				})
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "PENDING, PAID, EXPIRED, CANCELLED or REFUNDED")
	cmd.Flags().IntVarP(&limit, "limit", "n", queries.DefaultListLimit, "Maximum orders to print")
	cmd.Flags().IntVar(&offset, "offset", 0, "Orders to skip")
	return cmd
}

func ordersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [order-id]",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, d deps) error {
				view, err := d.Queries.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), view)
			})
		},
	}
}

func ordersStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count orders per status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, d deps) error {
				stats, err := d.Queries.Stats(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func ordersRewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards [order-id]",
		Short: "Show the referral rewards credited for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, d deps) error {
				rewards, err := d.Queries.Rewards(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), response.RewardListResponse{Rewards: rewards})
			})
		},
	}
}

func eventsCmd() *cobra.Command {
	var (
		outcome string
		limit   int
		offset  int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recorded payment events, optionally filtered by outcome",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, d deps) error {
				n := queries.ClampLimit(limit)
				events, err := d.Queries.PaymentEvents(ctx, outcome, n, offset)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), response.PaymentEventListResponse{
					Events: events, Limit: n, Offset: offset,
				})
			})
		},
	}
	cmd.Flags().StringVarP(&outcome, "outcome", "o", "", "e.g. invalid_transition for late payments, amount_mismatch for short ones")
	cmd.Flags().IntVarP(&limit, "limit", "n", queries.DefaultListLimit, "Maximum events to print")
	cmd.Flags().IntVar(&offset, "offset", 0, "Events to skip")
	return cmd
}
