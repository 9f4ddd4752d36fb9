package memory

import (
	"context"
	"slices"

	"digital-store/internal/domain/referral"
	"digital-store/internal/infra"

	"github.com/google/uuid"
)

type referralRepo struct {
	t *tables
}

func (r *referralRepo) GetEdge(_ context.Context, referredID int64) (*referral.Edge, error) {
	e, ok := r.t.edges[referredID]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "referral edge not found")
	}
	return clone(e), nil
}

func (r *referralRepo) CreateEdge(_ context.Context, e *referral.Edge) error {
	if e.ReferredID == e.ReferrerID || e.Level < 1 || e.Level > referral.HardMaxLevel {
		return infra.NewRepoErr(infra.KindConstraintViolated, "referral edge out of range")
	}
	if _, exists := r.t.edges[e.ReferredID]; exists {
		return infra.NewRepoErr(infra.KindDuplicateKey, "user already referred")
	}
	r.t.edges[e.ReferredID] = clone(e)
	return nil
}

type rewardRepo struct {
	t *tables
}

func (r *rewardRepo) Insert(_ context.Context, rw *referral.Reward) (bool, error) {
	key := rewardKey{orderID: rw.OrderID, referrerID: rw.ReferrerID}
	if _, exists := r.t.rewards[key]; exists {
		return false, nil
	}
	r.t.rewards[key] = clone(rw)
	return true, nil
}

func (r *rewardRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*referral.Reward, error) {
	var out []*referral.Reward
	for k, rw := range r.t.rewards {
		if k.orderID == orderID {
			out = append(out, rw)
		}
	}
	slices.SortFunc(out, func(a, b *referral.Reward) int {
		return a.Level - b.Level
	})
	return cloneAll(out), nil
}
