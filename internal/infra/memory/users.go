package memory

import (
	"context"
	"time"

	"digital-store/internal/domain/user"
	"digital-store/internal/infra"
)

type userRepo struct {
	t *tables
}

func (r *userRepo) Get(_ context.Context, id int64) (*user.User, error) {
	u, ok := r.t.users[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "user not found")
	}
	return clone(u), nil
}

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	if _, exists := r.t.users[u.ID]; exists {
		return infra.NewRepoErr(infra.KindDuplicateKey, "user already exists")
	}
	r.t.users[u.ID] = clone(u)
	return nil
}

func (r *userRepo) SetBanned(_ context.Context, id int64, banned bool, now time.Time) error {
	u, ok := r.t.users[id]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "user not found")
	}
	next := clone(u)
	next.IsBanned = banned
	next.UpdatedAt = now
	r.t.users[id] = next
	return nil
}
