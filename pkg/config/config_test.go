package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "festa_client", cfg.Session.ClientCookie)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("EMAIL_DEV_MODE", "maybe")

	cfg := Load()

	assert.Equal(t, 1025, cfg.Email.SMTPPort)
	assert.True(t, cfg.Email.DevMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) { c.Admin.Password = "letmein" }, false},
		{"hash only", func(c *Config) { c.Admin.PasswordHash = "$argon2id$..." }, false},
		{"no admin secret", func(c *Config) {}, true},
		{"short hash key", func(c *Config) { c.Admin.Password = "x"; c.Session.HashKey = "short" }, true},
		{"no block key", func(c *Config) { c.Admin.Password = "x"; c.Session.BlockKey = "" }, true},
		{"block key not an AES size", func(c *Config) { c.Admin.Password = "x"; c.Session.BlockKey = "twenty-byte-key-here" }, true},
		{"16 byte block key", func(c *Config) { c.Admin.Password = "x"; c.Session.BlockKey = "0123456789abcdef" }, false},
		{"unknown driver", func(c *Config) { c.Admin.Password = "x"; c.Storage.Driver = "etcd" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ADMIN_PASSWORD", "")
			t.Setenv("ADMIN_PASSWORD_HASH", "")
			t.Setenv("STORAGE_DRIVER", "memory")
			t.Setenv("SESSION_BLOCK_KEY", "0123456789abcdef0123456789abcdef")
			t.Setenv("SESSION_HASH_KEY", "0123456789abcdef0123456789abcdef")
			cfg := Load()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
