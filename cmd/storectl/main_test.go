//go:build unit

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"digital-store/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", t.TempDir()+"/missing.env")
	t.Setenv("PORT", "0")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("STORE_CATALOG_PATH", "../../data/products.json")
	t.Setenv("ADMIN_PASSWORD_HASH", "unused")
	t.Setenv("ADMIN_JWT_SECRET", "cli-test-secret")
	t.Setenv("LOG_LEVEL", "error")
}

func TestHashPassword(t *testing.T) {
	t.Run("標準入力のパスワードをbcryptハッシュにする", func(t *testing.T) {
		out, err := run(t, "correct horse battery\n", "hash-password")
		require.NoError(t, err)

		hash := strings.TrimSpace(out)
		assert.True(t, strings.HasPrefix(hash, "$2"))
		assert.NoError(t, password.Compare(hash, "correct horse battery"))
	})

	t.Run("短すぎるパスワードは拒否", func(t *testing.T) {
		_, err := run(t, "short\n", "hash-password")
		assert.ErrorIs(t, err, password.ErrPasswordTooShort)
	})
}

func TestOrderArgs(t *testing.T) {
	t.Run("不正な注文IDはグラフを起動せずにエラー", func(t *testing.T) {
		_, err := run(t, "", "expire", "not-a-uuid")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid order id")
	})

	t.Run("不正なユーザーID", func(t *testing.T) {
		for _, args := range [][]string{
			{"ban", "--", "-3"},
			{"ban", "0"},
			{"ban", "alice"},
		} {
			_, err := run(t, "", args...)
			require.Error(t, err, args)
			assert.Contains(t, err.Error(), "invalid user id", args)
		}
	})
}

func TestMemoryBackend(t *testing.T) {
	memoryEnv(t)

	t.Run("orders stats", func(t *testing.T) {
		out, err := run(t, "", "orders", "stats")
		require.NoError(t, err)

		var stats struct {
			Total int64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &stats))
		assert.Zero(t, stats.Total)
	})

	t.Run("sweep", func(t *testing.T) {
		out, err := run(t, "", "sweep")
		require.NoError(t, err)
		assert.JSONEq(t, `{"expired":0}`, out)
	})

	t.Run("存在しない注文", func(t *testing.T) {
		_, err := run(t, "", "orders", "get", "7d1c2b8e-6a4f-4a53-9c1e-2f0f3c1d9a10")
		assert.Error(t, err)
	})
}
