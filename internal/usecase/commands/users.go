package commands

import (
	"context"
	"log/slog"

	"digital-store/internal/domain/referral"
	"digital-store/internal/domain/user"
	"digital-store/internal/infra"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"
)

type RegisterResult struct {
	User    *user.User
	Created bool
}

//go:generate mockgen -source=users.go -destination=mock/users.go -package=commandsmock

type UserCommands interface {
	Register(ctx context.Context, userID int64, username string, referrerID *int64) (*RegisterResult, error)
	SetBanned(ctx context.Context, userID int64, banned bool) error
}

type UserService struct {
	uow    shared.UnitOfWork
	clock  clock.Clock
	logger *slog.Logger
}

func NewUserService(uow shared.UnitOfWork, clk clock.Clock, logger *slog.Logger) *UserService {
	return &UserService{uow: uow, clock: clk, logger: logger}
}

// Register creates the user on first contact. A referrer is only linked at
// that moment; for an existing user it is ignored so edges stay immutable.
func (s *UserService) Register(ctx context.Context, userID int64, username string, referrerID *int64) (*RegisterResult, error) {
	return shared.WithinResult(ctx, s.uow, func(ctx context.Context, tx shared.Tx) (*RegisterResult, error) {
		existing, err := tx.Users().Get(ctx, userID)
		if err == nil {
			return &RegisterResult{User: existing}, nil
		}
		if !infra.IsNotFound(err) {
			return nil, errs.Wrap(err, "get user")
		}

		now := s.clock.Now()
		u, err := user.New(userID, username, now)
		if err != nil {
			return nil, errs.Mark(err, ErrInvalidInput)
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			return nil, errs.Wrap(err, "create user")
		}

		if referrerID != nil {
			if err := s.link(ctx, tx, userID, *referrerID); err != nil {
				return nil, err
			}
		}
		s.logger.Info("user registered", "user_id", userID, "referrer_id", referrerID)
		return &RegisterResult{User: u, Created: true}, nil
	})
}

func (s *UserService) link(ctx context.Context, tx shared.Tx, referredID, referrerID int64) error {
	if referredID == referrerID {
		return errs.Mark(referral.ErrSelfReferral, ErrSelfReferral)
	}
	if _, err := tx.Users().Get(ctx, referrerID); err != nil {
		if infra.IsNotFound(err) {
			return errs.Mark(errs.Newf("referrer %d is not registered", referrerID), ErrUserNotFound)
		}
		return errs.Wrap(err, "get referrer")
	}

	ancestors, referrerLevel, err := s.ancestors(ctx, tx, referrerID)
	if err != nil {
		return err
	}
	if err := referral.CheckAcyclic(referredID, append([]int64{referrerID}, ancestors...)); err != nil {
		return errs.Mark(err, ErrReferralCycle)
	}

	edge, err := referral.NewEdge(referredID, referrerID, referrerLevel, s.clock.Now())
	if err != nil {
		return errs.Mark(err, ErrSelfReferral)
	}
	if err := tx.Referrals().CreateEdge(ctx, edge); err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return errs.Mark(err, ErrAlreadyReferred)
		}
		return errs.Wrap(err, "create referral edge")
	}
	return nil
}

// ancestors walks upwards from userID, nearest first, and returns userID's own level.
func (s *UserService) ancestors(ctx context.Context, tx shared.Tx, userID int64) ([]int64, int, error) {
	var chain []int64
	level := 0
	current := userID
	for range referral.HardMaxLevel * 2 {
		edge, err := tx.Referrals().GetEdge(ctx, current)
		if infra.IsNotFound(err) {
			break
		}
		if err != nil {
			return nil, 0, errs.Wrap(err, "get referral edge")
		}
		if current == userID {
			level = edge.Level
		}
		chain = append(chain, edge.ReferrerID)
		current = edge.ReferrerID
	}
	return chain, level, nil
}

func (s *UserService) SetBanned(ctx context.Context, userID int64, banned bool) error {
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Users().SetBanned(ctx, userID, banned, s.clock.Now())
	})
	if infra.IsNotFound(err) {
		return errs.Mark(err, ErrUserNotFound)
	}
	if err != nil {
		return errs.Wrap(err, "set banned")
	}
	s.logger.Info("user ban updated", "user_id", userID, "banned", banned)
	return nil
}
