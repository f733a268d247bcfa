package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "storeblog-backend", cfg.App.Name)
	assert.Equal(t, 120*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 20*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 20*time.Minute, cfg.Auth.ResetTTL)
	assert.Equal(t, 32, cfg.Blog.MaxReplyDepth)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxBytes)
	assert.False(t, cfg.Mail.MailEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9000
mongo:
  database: shop
mail:
  host: smtp.example.com
  from: shop@example.com
`), 0o600))

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9100")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Address())
	assert.Equal(t, "shop", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
	assert.True(t, cfg.Mail.MailEnabled())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"wildcard cors", map[string]string{"JWT_SECRET": testSecret, "CORS_ALLOWED_ORIGINS": "*"}},
		{"insecure cookie in production", map[string]string{"JWT_SECRET": testSecret, "ENVIRONMENT": "production", "COOKIE_SECURE": "false"}},
		{"unknown log level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "loud"}},
		{"reply depth past nesting limit", map[string]string{"JWT_SECRET": testSecret, "BLOG_MAX_REPLY_DEPTH": "60"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
