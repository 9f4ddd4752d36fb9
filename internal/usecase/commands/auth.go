package commands

import (
	"context"
	"crypto/subtle"
	"time"

	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/pkg/jwt"
	"digital-store/internal/pkg/password"
)

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=commandsmock

type AuthCommands interface {
	Login(ctx context.Context, username, plain string) (*LoginResult, error)
}

// AuthService authenticates the single operator account from configuration.
type AuthService struct {
	username     string
	passwordHash string
	jwtService   *jwt.Service
}

func NewAuthService(cfg config.Config, jwtService *jwt.Service) *AuthService {
	return &AuthService{
		username:     cfg.Admin.Username,
		passwordHash: cfg.Admin.PasswordHash,
		jwtService:   jwtService,
	}
}

func (a *AuthService) Login(_ context.Context, username, plain string) (*LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passErr := password.Compare(a.passwordHash, plain)
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := a.jwtService.GenerateToken(a.username, jwt.RoleAdmin)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt}, nil
}
