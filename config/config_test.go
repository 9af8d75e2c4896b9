package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, StorePostgres, cfg.Store.Kind)
	require.Equal(t, yahooTokenURL, cfg.Yahoo.TokenURL)
	require.Equal(t, yahooAPIURL, cfg.Yahoo.APIURL)
	require.Equal(t, 5.0, cfg.Yahoo.RateLimit)
	require.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	require.Equal(t, togetherModel, cfg.Together.Model)
	require.False(t, cfg.IsProduction())
	require.False(t, cfg.YahooEnabled())
}

func TestLoad_file(t *testing.T) {
	t.Setenv("FH_TEST_SECRET", "from-env")
	path := writeConfig(t, `
environment: production
server:
  port: 8080
  request_timeout: 30s
  session_secret: ${FH_TEST_SECRET}
store:
  kind: memory
yahoo:
  client_id: id
  client_secret: secret
  redirect_url: https://example.com/oauth/yahoo/callback
redis:
  addr: localhost:6379
  lock_ttl: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.True(t, cfg.IsProduction())
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	require.Equal(t, "from-env", cfg.Server.SessionSecret)
	require.Equal(t, StoreMemory, cfg.Store.Kind)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 3*time.Second, cfg.Redis.LockTTL)
	require.True(t, cfg.YahooEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_envOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("YAHOO_RATE_LIMIT", "2.5")
	t.Setenv("STORE", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowOrigins)
	require.Equal(t, 2.5, cfg.Yahoo.RateLimit)
	require.Equal(t, StoreMemory, cfg.Store.Kind)
}

func TestLoad_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"memory store": {
			cfg: Config{Store: StoreConfig{Kind: StoreMemory}, Server: ServerConfig{SessionSecret: "s"}},
		},
		"postgres without url": {
			cfg:     Config{Store: StoreConfig{Kind: StorePostgres, TokenKey: "k"}, Server: ServerConfig{SessionSecret: "s"}},
			wantErr: true,
		},
		"postgres without key": {
			cfg:     Config{Store: StoreConfig{Kind: StorePostgres, PostgresURL: "postgres://x"}, Server: ServerConfig{SessionSecret: "s"}},
			wantErr: true,
		},
		"unknown store": {
			cfg:     Config{Store: StoreConfig{Kind: "sqlite"}, Server: ServerConfig{SessionSecret: "s"}},
			wantErr: true,
		},
		"no session secret": {
			cfg:     Config{Store: StoreConfig{Kind: StoreMemory}},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
