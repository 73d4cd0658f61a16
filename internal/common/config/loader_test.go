package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: test-secret
cms:
  base_url: https://cms.example.com
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "equimarket", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "http", cfg.CMS.Driver)
	assert.Equal(t, "memory", cfg.Wizard.StepStore)
	assert.Equal(t, "auth_token", cfg.Auth.CookieName)
	assert.Equal(t, time.Hour, GetDuration(cfg.Auth.TokenExpiry))
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "equimarket", cfg.Observability.ServiceName)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")
	path := writeConfig(t, `
auth:
  jwt_secret: ${TEST_JWT_SECRET}
cms:
  base_url: https://cms.example.com
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Auth.JWTSecret = "s"
		cfg.CMS.BaseURL = "https://cms.example.com"
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret"},
		{"http without base url", func(c *Config) { c.CMS.BaseURL = "" }, "cms.base_url"},
		{"unknown driver", func(c *Config) { c.CMS.Driver = "mongo" }, "cms.driver"},
		{"postgres without host", func(c *Config) { c.CMS.Driver = "postgres" }, "database.postgres.host"},
		{"redis store without address", func(c *Config) { c.Wizard.StepStore = "redis" }, "database.redis.address"},
		{"search without elasticsearch", func(c *Config) { c.Hooks.Search.Enabled = true }, "elasticsearch"},
		{"sns without topic", func(c *Config) { c.Notifications.SNS.Enabled = true }, "topic_arn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "equi", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=equi sslmode=disable", p.GetDSN())
}
