//go:build unit

package commands_test

import (
	"context"
	"testing"

	"digital-store/internal/domain/referral"
	"digital-store/internal/infra"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) edge(referredID int64) (*referral.Edge, error) {
	var e *referral.Edge
	err := f.store.WithDB(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		var err error
		e, err = tx.Referrals().GetEdge(ctx, referredID)
		return err
	})
	return e, err
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("正常系: 紹介者付きで登録", func(t *testing.T) {
		f.register(1, nil)
		res, err := f.users.Register(ctx, 2, "  bob  ", ptr(int64(1)))
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, "bob", res.User.Username)
		assert.Len(t, res.User.ReferralCode, 8)

		e, err := f.edge(2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.ReferrerID)
	})

	t.Run("再登録は冪等で紹介者は変わらない", func(t *testing.T) {
		f.register(3, nil)
		res, err := f.users.Register(ctx, 2, "bob", ptr(int64(3)))
		require.NoError(t, err)
		assert.False(t, res.Created)

		e, err := f.edge(2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.ReferrerID)
	})

	t.Run("異常系", func(t *testing.T) {
		tests := []struct {
			name       string
			id         int64
			referrerID *int64
			want       error
		}{
			{"自分自身を紹介者にはできない", 10, ptr(int64(10)), commands.ErrSelfReferral},
			{"未登録の紹介者", 11, ptr(int64(999)), commands.ErrUserNotFound},
			{"不正なユーザーID", 0, nil, commands.ErrInvalidInput},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.users.Register(ctx, tt.id, "", tt.referrerID)
				isErr(t, err, tt.want)

				// The user row is rolled back together with the failed link.
				err = f.store.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
					_, err := tx.Users().Get(ctx, tt.id)
					return err
				})
				assert.True(t, infra.IsNotFound(err))
			})
		}
	})
}

func TestSetBanned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(1, nil)

	require.NoError(t, f.users.SetBanned(ctx, 1, true))
	_, err := f.purchase.Purchase(ctx, commands.PurchaseRequest{BuyerID: 1, ProductID: productUnlimited, Quantity: 1, Gateway: testGateway})
	isErr(t, err, commands.ErrBuyerBanned)

	require.NoError(t, f.users.SetBanned(ctx, 1, false))
	f.buy(1, productUnlimited, 1)

	isErr(t, f.users.SetBanned(ctx, 404, true), commands.ErrUserNotFound)
}
