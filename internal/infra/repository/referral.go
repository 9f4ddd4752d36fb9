package repository

import (
	"context"

	"digital-store/internal/domain/referral"
	"digital-store/internal/infra"
	"digital-store/internal/infra/db"
	"digital-store/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type ReferralRepository struct {
	db db.DBTX
}

func NewReferralRepository(db db.DBTX) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) GetEdge(ctx context.Context, referredID int64) (*referral.Edge, error) {
	var e referral.Edge
	err := r.db.QueryRow(ctx, `
		SELECT referred_id, referrer_id, level, created_at
		FROM referral_edges WHERE referred_id = $1`, referredID,
	).Scan(&e.ReferredID, &e.ReferrerID, &e.Level, &e.CreatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get referral edge", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func (r *ReferralRepository) CreateEdge(ctx context.Context, e *referral.Edge) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO referral_edges (referred_id, referrer_id, level, created_at)
		VALUES ($1, $2, $3, $4)`, e.ReferredID, e.ReferrerID, e.Level, e.CreatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to create referral edge", err)
	}
	return nil
}

type RewardRepository struct {
	db db.DBTX
}

func NewRewardRepository(db db.DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) Insert(ctx context.Context, rw *referral.Reward) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO referral_rewards (order_id, referrer_id, referred_id, level, amount, currency, credited_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
		ON CONFLICT (order_id, referrer_id) DO NOTHING`,
		rw.OrderID, rw.ReferrerID, rw.ReferredID, rw.Level, pgconv.DecimalToText(rw.Amount), rw.Currency, rw.CreditedAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert referral reward", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RewardRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*referral.Reward, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id, referrer_id, referred_id, level, amount::text, currency, credited_at
		FROM referral_rewards WHERE order_id = $1 ORDER BY level`, orderID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list referral rewards", err)
	}
	defer rows.Close()

	var out []*referral.Reward
	for rows.Next() {
		var (
			rw     referral.Reward
			amount string
		)
		if err := rows.Scan(&rw.OrderID, &rw.ReferrerID, &rw.ReferredID, &rw.Level, &amount, &rw.Currency, &rw.CreditedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan referral reward", err)
		}
		if rw.Amount, err = pgconv.DecimalFromText(amount); err != nil {
			return nil, infra.WrapRepoErr("failed to parse referral reward amount", err)
		}
		rw.CreditedAt = rw.CreditedAt.UTC()
		out = append(out, &rw)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to list referral rewards", err)
	}
	return out, nil
}
