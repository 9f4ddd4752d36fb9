package commands

import (
	"context"
	"log/slog"

	"digital-store/internal/domain/order"
	"digital-store/internal/domain/referral"
	"digital-store/internal/infra"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
)

type RewardEngine struct {
	uow     shared.UnitOfWork
	policy  referral.Policy
	enabled bool
	clock   clock.Clock
	logger  *slog.Logger
}

func NewRewardEngine(cfg config.Config, uow shared.UnitOfWork, clk clock.Clock, logger *slog.Logger) (*RewardEngine, error) {
	engine := &RewardEngine{uow: uow, enabled: cfg.Referral.Enabled, clock: clk, logger: logger}
	if !engine.enabled {
		return engine, nil
	}
	policy, err := referral.NewPolicy(cfg.Referral.Rates, cfg.Referral.MaxDepth)
	if err != nil {
		return nil, errs.Wrap(err, "referral policy")
	}
	engine.policy = policy
	return engine, nil
}

// CreditRewards walks the buyer's referrer chain and writes one reward per
// (order, referrer). Running it again only fills in rows that are missing.
// It returns the number of rewards created by this call.
func (r *RewardEngine) CreditRewards(ctx context.Context, orderID uuid.UUID) (int, error) {
	if !r.enabled {
		return 0, nil
	}
	return shared.WithinResult(ctx, r.uow, func(ctx context.Context, tx shared.Tx) (int, error) {
		o, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return 0, orderErr(err, "get order")
		}
		if o.Status != order.StatusPaid {
			r.logger.Info("rewards skipped, order not paid", "order_id", orderID, "status", o.Status)
			return 0, nil
		}
		return r.walk(ctx, tx, o)
	})
}

func (r *RewardEngine) walk(ctx context.Context, tx shared.Tx, o *order.Order) (int, error) {
	now := r.clock.Now()
	credited := 0
	current := o.BuyerID
	seen := map[int64]bool{o.BuyerID: true}

	for level := 1; level <= r.policy.Levels(); level++ {
		edge, err := tx.Referrals().GetEdge(ctx, current)
		if infra.IsNotFound(err) {
			break
		}
		if err != nil {
			return 0, errs.Wrap(err, "get referral edge")
		}
		referrerID := edge.ReferrerID
		if seen[referrerID] {
			r.logger.Error("referral cycle detected during reward walk", "order_id", o.ID, "user_id", referrerID)
			break
		}
		seen[referrerID] = true
		current = referrerID

		referrer, err := tx.Users().Get(ctx, referrerID)
		if infra.IsNotFound(err) {
			continue
		}
		if err != nil {
			return 0, errs.Wrap(err, "get referrer")
		}
		if !referrer.EarnsRewards() {
			r.logger.Info("banned referrer skipped", "order_id", o.ID, "referrer_id", referrerID, "level", level)
			continue
		}

		amount := r.policy.Amount(level, o.Total, o.Currency)
		if !amount.IsPositive() {
			continue
		}
		inserted, err := tx.Rewards().Insert(ctx, &referral.Reward{
			OrderID:    o.ID,
			ReferrerID: referrerID,
			ReferredID: o.BuyerID,
			Level:      level,
			Amount:     amount,
			Currency:   o.Currency,
			CreditedAt: now,
		})
		if err != nil {
			return 0, errs.Wrap(err, "insert reward")
		}
		if inserted {
			credited++
			r.logger.Info("referral reward credited",
				"order_id", o.ID,
				"referrer_id", referrerID,
				"level", level,
				"amount", amount.String(),
				"currency", o.Currency)
		}
	}
	return credited, nil
}
