//go:build unit

package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"digital-store/internal/domain/inventory"
	"digital-store/internal/domain/job"
	"digital-store/internal/domain/order"
	"digital-store/internal/infra"
	"digital-store/internal/infra/memory"
	"digital-store/internal/usecase/shared"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.New(order.NewParams{
		BuyerID:   1,
		ProductID: 10,
		Quantity:  1,
		UnitPrice: decimal.NewFromInt(100),
		Currency:  "XTR",
		Gateway:   "telegram_stars",
	}, now, 15*time.Minute)
	require.NoError(t, err)
	return o
}

func TestStore_Within(t *testing.T) {
	ctx := context.Background()

	t.Run("エラー時はロールバックされる", func(t *testing.T) {
		store := memory.NewStore()
		o := newOrder(t)
		boom := errors.New("boom")

		err := store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			require.NoError(t, tx.Orders().Create(ctx, o))
			_, err := tx.Stock().Seed(ctx, 10, 5, now)
			require.NoError(t, err)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		err = store.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			_, err := tx.Orders().Get(ctx, o.ID)
			assert.True(t, infra.IsNotFound(err))
			_, err = tx.Stock().Get(ctx, 10)
			assert.True(t, infra.IsNotFound(err))
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("返されたエンティティを変更しても保存値は変わらない", func(t *testing.T) {
		store := memory.NewStore()
		o := newOrder(t)

		err := store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			if err := tx.Orders().Create(ctx, o); err != nil {
				return err
			}
			got, err := tx.Orders().Get(ctx, o.ID)
			if err != nil {
				return err
			}
			got.Status = order.StatusPaid
			stored, err := tx.Orders().Get(ctx, o.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, order.StatusPending, stored.Status)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestOrderRepo_Update(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	o := newOrder(t)

	err := store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		require.NoError(t, tx.Orders().Create(ctx, o))

		o.Status = order.StatusPaid
		require.NoError(t, tx.Orders().Update(ctx, o, 1))
		assert.Equal(t, int64(2), o.Version)

		err := tx.Orders().Update(ctx, o, 1)
		assert.True(t, infra.IsKind(err, infra.KindConflict))
		return nil
	})
	require.NoError(t, err)
}

func TestStockRepo_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	err := store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		seeded, err := tx.Stock().Seed(ctx, 10, 1, now)
		require.NoError(t, err)
		assert.True(t, seeded)

		seeded, err = tx.Stock().Seed(ctx, 10, 99, now)
		require.NoError(t, err)
		assert.False(t, seeded)

		s, err := tx.Stock().Get(ctx, 10)
		require.NoError(t, err)
		next, err := s.Reserve(1)
		require.NoError(t, err)

		ok, err := tx.Stock().CompareAndSwap(ctx, &next, s.Version)
		require.NoError(t, err)
		assert.True(t, ok)

		stale, _ := s.Reserve(1)
		ok, err = tx.Stock().CompareAndSwap(ctx, &stale, s.Version)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestReservationRepo_Transition(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	o := newOrder(t)

	err := store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res := inventory.NewReservation(inventory.Token{OrderID: o.ID, ProductID: 10, Quantity: 1}, now)
		require.NoError(t, tx.Reservations().Create(ctx, res))

		moved, err := tx.Reservations().Transition(ctx, o.ID, inventory.StateActive, inventory.StateReleased, now)
		require.NoError(t, err)
		assert.True(t, moved)

		moved, err = tx.Reservations().Transition(ctx, o.ID, inventory.StateActive, inventory.StateReleased, now)
		require.NoError(t, err)
		assert.False(t, moved)
		return nil
	})
	require.NoError(t, err)
}

func TestJobRepo_ClaimDue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	o := newOrder(t)

	err := store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		j := job.New(o.ID, job.KindDelivery, now)
		created, err := tx.Jobs().Enqueue(ctx, j)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = tx.Jobs().Enqueue(ctx, job.New(o.ID, job.KindDelivery, now))
		require.NoError(t, err)
		assert.False(t, created)

		claimed, err := tx.Jobs().ClaimDue(ctx, now, now.Add(time.Minute), 10)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, 1, claimed[0].Attempts)
		assert.Equal(t, job.StatusRunning, claimed[0].Status)

		again, err := tx.Jobs().ClaimDue(ctx, now.Add(30*time.Second), now.Add(time.Minute), 10)
		require.NoError(t, err)
		assert.Empty(t, again)

		expired, err := tx.Jobs().ClaimDue(ctx, now.Add(2*time.Minute), now.Add(3*time.Minute), 10)
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, 2, expired[0].Attempts)
		return nil
	})
	require.NoError(t, err)
}
