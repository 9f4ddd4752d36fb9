//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/jwt"
	"digital-store/internal/pkg/password"
	"digital-store/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	hash, err := password.Hash("correct horse")
	require.NoError(t, err)

	cfg := config.NewTestConfig()
	cfg.Admin.PasswordHash = hash
	jwtService := jwt.NewService(cfg.Admin.JWTSecret, time.Hour)
	svc := commands.NewAuthService(cfg, jwtService)

	t.Run("正常系", func(t *testing.T) {
		res, err := svc.Login(context.Background(), "admin", "correct horse")
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.True(t, res.ExpiresAt.After(time.Now()))

		claims, err := jwtService.ValidateToken(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, jwt.RoleAdmin, claims.Role)
	})

	for name, creds := range map[string][2]string{
		"パスワード違い": {"admin", "wrong"},
		"ユーザー名違い": {"root", "correct horse"},
		"空の認証情報":  {"", ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), creds[0], creds[1])
			isErr(t, err, commands.ErrInvalidCredentials)
		})
	}
}
