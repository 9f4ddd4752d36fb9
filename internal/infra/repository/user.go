package repository

import (
	"context"
	"time"

	"digital-store/internal/domain/user"
	"digital-store/internal/infra"
	"digital-store/internal/infra/db"
)

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(db db.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, referral_code, is_banned, created_at, updated_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.ReferralCode, &u.IsBanned, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get user", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, referral_code, is_banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.ReferralCode, u.IsBanned, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create user", err)
	}
	return nil
}

func (r *UserRepository) SetBanned(ctx context.Context, id int64, banned bool, now time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_banned = $2, updated_at = $3 WHERE id = $1`, id, banned, now)
	if err != nil {
		return infra.WrapRepoErr("failed to update user ban", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "user not found")
	}
	return nil
}
