package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestLoad(t *testing.T) {
	t.Run("Should return defaults without environment", func(t *testing.T) {
		cfg, err := Load(environ())
		require.NoError(t, err)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL)
		assert.Equal(t, 5, cfg.Reviews.MaxFiles)
		assert.Equal(t, int64(5<<20), cfg.Reviews.MaxFileBytes)
		assert.Equal(t, "mock", cfg.Payments.Provider)
	})

	t.Run("Should map prefixed variables onto sections", func(t *testing.T) {
		cfg, err := Load(environ(
			"SHOP_DB_DRIVER=sqlite",
			"SHOP_DB_DSN=file:test.db",
			"SHOP_SESSION_TTL=2h",
			"SHOP_MAIL_ADMIN_RECIPIENTS=a@example.com,b@example.com",
			"SHOP_REVIEWS_AUTO_APPROVE=true",
			"SHOP_PAYMENTS_PROVIDER=toss",
			"SHOP_PAYMENTS_CLIENT_KEY=test_ck",
			"SHOP_PAYMENTS_SECRET_KEY=test_sk",
			"OTHER_DB_DSN=ignored",
		))
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.DB.Driver)
		assert.Equal(t, "file:test.db", cfg.DB.DSN)
		assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.AdminRecipients)
		assert.True(t, cfg.Reviews.AutoApprove)
		assert.Equal(t, "test_sk", cfg.Payments.SecretKey)
	})

	t.Run("Should reject unknown drivers", func(t *testing.T) {
		_, err := Load(environ("SHOP_DB_DRIVER=postgres"))
		require.Error(t, err)
	})

	t.Run("Should require toss keys when toss is selected", func(t *testing.T) {
		_, err := Load(environ("SHOP_PAYMENTS_PROVIDER=toss"))
		require.Error(t, err)
	})

	t.Run("Should refuse the development secret in production", func(t *testing.T) {
		_, err := Load(environ("SHOP_APP_ENV=production"))
		require.ErrorIs(t, err, ErrInsecureSecret)
	})
}

func TestTransformEnvKey(t *testing.T) {
	k, v := transformEnvKey("SHOP_PAYMENTS_SECRET_KEY", "x")
	assert.Equal(t, "payments.secret_key", k)
	assert.Equal(t, "x", v)

	k, _ = transformEnvKey("SHOP_NOSECTION", "x")
	assert.Empty(t, k)
}

func TestAppConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, AppConfig{Timezone: "Nowhere/Invalid"}.Location())
}
