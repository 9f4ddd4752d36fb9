//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"digital-store/internal/domain/job"
	"digital-store/internal/domain/order"
	"digital-store/internal/domain/referral"
	"digital-store/internal/pkg/config"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) findJob(orderID uuid.UUID, kind job.Kind) (*job.Job, error) {
	var j *job.Job
	err := f.store.WithDB(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		var err error
		j, err = tx.Jobs().Get(ctx, orderID, kind)
		return err
	})
	return j, err
}

func (f *fixture) job(orderID uuid.UUID, kind job.Kind) *job.Job {
	f.t.Helper()
	j, err := f.findJob(orderID, kind)
	require.NoError(f.t, err)
	return j
}

func TestJobRunner_DeliversPaidOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(100, nil)
	o := f.buy(100, productFinite, 1)
	f.pay(o, "evt-1")

	done, err := f.jobs.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, done)

	msgs := f.sink.delivered()
	require.Len(t, msgs, 1)
	assert.Equal(t, o.ID, msgs[0].OrderID)
	assert.Equal(t, int64(100), msgs[0].BuyerID)
	assert.Equal(t, "Key for "+o.Number, msgs[0].Payload)

	delivered := f.order(o.ID)
	assert.True(t, delivered.Delivered)
	assert.Equal(t, order.StatusPaid, delivered.Status)
	assert.Equal(t, job.StatusDone, f.job(o.ID, job.KindDelivery).Status)

	done, err = f.jobs.RunDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, done)
	assert.Len(t, f.sink.delivered(), 1)
}

func TestJobRunner_RetriesThenFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(100, nil)
	o := f.buy(100, productFinite, 1)
	f.pay(o, "evt-1")
	f.sink.err = errors.New("broker unavailable")

	_, err := f.jobs.RunDue(ctx)
	require.NoError(t, err)
	j := f.job(o.ID, job.KindDelivery)
	assert.Equal(t, job.StatusQueued, j.Status)
	assert.Equal(t, 1, j.Attempts)
	assert.Equal(t, f.clock.Now().Add(job.Backoff(1)), j.RunAt)
	assert.Contains(t, j.LastError, "broker unavailable")

	t.Run("バックオフ前は実行されない", func(t *testing.T) {
		done, err := f.jobs.RunDue(ctx)
		require.NoError(t, err)
		assert.Zero(t, done)
		assert.Equal(t, 1, f.job(o.ID, job.KindDelivery).Attempts)
	})

	for attempt := 1; attempt < f.cfg.Store.JobMaxAttempts; attempt++ {
		f.clock.Add(job.Backoff(attempt))
		_, err := f.jobs.RunDue(ctx)
		require.NoError(t, err)
	}
	j = f.job(o.ID, job.KindDelivery)
	assert.Equal(t, job.StatusFailed, j.Status)
	assert.Equal(t, f.cfg.Store.JobMaxAttempts, j.Attempts)
	assert.False(t, f.order(o.ID).Delivered)

	t.Run("管理者の再投入で配送される", func(t *testing.T) {
		f.sink.err = nil
		kinds, err := f.admin.RetryJobs(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, []job.Kind{job.KindDelivery, job.KindReferralRewards}, kinds)

		_, err = f.jobs.RunDue(ctx)
		require.NoError(t, err)
		assert.True(t, f.order(o.ID).Delivered)
		assert.Len(t, f.sink.delivered(), 1)
	})
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(100, nil)

	t.Run("未払いの注文は配送しない", func(t *testing.T) {
		o := f.buy(100, productFinite, 1)
		require.NoError(t, f.dispatcher.Dispatch(ctx, o.ID))
		assert.Empty(t, f.sink.delivered())

		_, err := f.dispatcher.Redispatch(ctx, o.ID)
		isErr(t, err, commands.ErrOrderNotPaid)
	})

	t.Run("再配送は配送済みでも送り直す", func(t *testing.T) {
		o := f.buy(100, productUnlimited, 1)
		f.pay(o, "evt-r")
		require.NoError(t, f.dispatcher.Dispatch(ctx, o.ID))
		version := f.order(o.ID).Version

		again, err := f.admin.Redispatch(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, again.Delivered)
		assert.Equal(t, version, again.Version, "the delivered flag is only set once")
		assert.Len(t, f.sink.delivered(), 2)
	})
}

func TestRewardEngine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// 1 <- 2 <- 3 <- 4 <- 5
	f.register(1, nil)
	f.register(2, ptr(int64(1)))
	f.register(3, ptr(int64(2)))
	f.register(4, ptr(int64(3)))
	f.register(5, ptr(int64(4)))
	require.NoError(t, f.users.SetBanned(ctx, 3, true))

	o := f.buy(5, productFinite, 1)

	t.Run("未払いの注文には報酬を出さない", func(t *testing.T) {
		n, err := f.rewards.CreditRewards(ctx, o.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	f.pay(o, "evt-1")

	n, err := f.rewards.CreditRewards(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "level 2 is banned and skipped, the walk continues to level 3")

	var rewards []*referral.Reward
	err = f.store.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		rewards, err = tx.Rewards().ListByOrder(ctx, o.ID)
		return err
	})
	require.NoError(t, err)
	require.Len(t, rewards, 2)

	byReferrer := map[int64]*referral.Reward{}
	for _, r := range rewards {
		byReferrer[r.ReferrerID] = r
	}
	require.Contains(t, byReferrer, int64(4))
	require.Contains(t, byReferrer, int64(2))
	assert.Equal(t, 1, byReferrer[4].Level)
	assert.True(t, byReferrer[4].Amount.Equal(decimal.RequireFromString("1.00")))
	assert.Equal(t, 3, byReferrer[2].Level)
	assert.True(t, byReferrer[2].Amount.Equal(decimal.RequireFromString("0.20")))
	assert.NotContains(t, byReferrer, int64(1), "only three levels are paid")

	t.Run("二度目の実行では何も追加しない", func(t *testing.T) {
		n, err := f.rewards.CreditRewards(ctx, o.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRewardEngine_Disabled(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Referral.Enabled = false })
	f.register(1, nil)
	f.register(2, ptr(int64(1)))
	o := f.buy(2, productUnlimited, 1)
	f.pay(o, "evt-1")

	_, err := f.findJob(o.ID, job.KindReferralRewards)
	assert.Error(t, err, "no rewards job is queued when referrals are off")

	n, err := f.rewards.CreditRewards(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
