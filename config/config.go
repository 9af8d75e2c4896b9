// Package config loads the service settings from an optional YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	yahooAuthURL  = "https://api.login.yahoo.com/oauth2/request_auth"
	yahooTokenURL = "https://api.login.yahoo.com/oauth2/get_token"
	yahooAPIURL   = "https://fantasysports.yahooapis.com"
	yahooIssuer   = "https://api.login.yahoo.com"
	togetherModel = "meta-llama/Llama-3.1-70B-Instruct-Turbo"
)

type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Store       StoreConfig    `yaml:"store"`
	Redis       RedisConfig    `yaml:"redis"`
	Yahoo       YahooConfig    `yaml:"yahoo"`
	Together    TogetherConfig `yaml:"together"`
}

type ServerConfig struct {
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	SessionSecret    string        `yaml:"session_secret"`
	CORSAllowOrigins []string      `yaml:"cors_allow_origins"`
}

type StoreConfig struct {
	Kind        string `yaml:"kind"`
	PostgresURL string `yaml:"postgres_url"`
	// Base64 encoded 32 byte key used to seal OAuth tokens at rest.
	TokenKey string `yaml:"token_key"`
}

// RedisConfig is optional. With no address the token refresh is only
// serialized inside one process.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type YahooConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	RedirectURL  string        `yaml:"redirect_url"`
	AuthURL      string        `yaml:"auth_url"`
	TokenURL     string        `yaml:"token_url"`
	APIURL       string        `yaml:"api_url"`
	OIDCIssuer   string        `yaml:"oidc_issuer"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rate_limit"`
}

type TogetherConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads path when it is not empty, then applies environment overrides
// and defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// YahooEnabled reports whether enough is configured to link Yahoo accounts.
func (c *Config) YahooEnabled() bool {
	return c.Yahoo.ClientID != "" && c.Yahoo.ClientSecret != "" && c.Yahoo.RedirectURL != ""
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case StorePostgres:
		if c.Store.PostgresURL == "" {
			errs = append(errs, errors.New("postgres store needs POSTGRES_CONN_STR"))
		}
		if c.Store.TokenKey == "" {
			errs = append(errs, errors.New("postgres store needs TOKEN_SEALING_KEY"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store.Kind))
	}
	if c.Server.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET must be set"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() {
	c.Environment = envOr("ENVIRONMENT", c.Environment)

	c.Server.Port = envInt("PORT", c.Server.Port)
	c.Server.SessionSecret = envOr("SESSION_SECRET", c.Server.SessionSecret)
	c.Server.CORSAllowOrigins = envList("CORS_ALLOW_ORIGINS", c.Server.CORSAllowOrigins)

	c.Store.Kind = envOr("STORE", c.Store.Kind)
	c.Store.PostgresURL = envOr("POSTGRES_CONN_STR", c.Store.PostgresURL)
	c.Store.TokenKey = envOr("TOKEN_SEALING_KEY", c.Store.TokenKey)

	c.Redis.Addr = envOr("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envOr("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envInt("REDIS_DB", c.Redis.DB)

	c.Yahoo.ClientID = envOr("YAHOO_CLIENT_ID", c.Yahoo.ClientID)
	c.Yahoo.ClientSecret = envOr("YAHOO_CLIENT_SECRET", c.Yahoo.ClientSecret)
	c.Yahoo.RedirectURL = envOr("OAUTH_REDIRECT_URL", c.Yahoo.RedirectURL)
	c.Yahoo.APIURL = envOr("YAHOO_API_URL", c.Yahoo.APIURL)
	c.Yahoo.OIDCIssuer = envOr("YAHOO_OIDC_ISSUER", c.Yahoo.OIDCIssuer)
	c.Yahoo.RateLimit = envFloat("YAHOO_RATE_LIMIT", c.Yahoo.RateLimit)

	c.Together.APIKey = envOr("TOGETHER_API_KEY", c.Together.APIKey)
	c.Together.Model = envOr("TOGETHER_MODEL", c.Together.Model)
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 45 * time.Second
	}
	if len(c.Server.CORSAllowOrigins) == 0 {
		c.Server.CORSAllowOrigins = []string{"http://localhost:3000"}
	}

	if c.Store.Kind == "" {
		c.Store.Kind = StorePostgres
	}

	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 10 * time.Second
	}

	if c.Yahoo.AuthURL == "" {
		c.Yahoo.AuthURL = yahooAuthURL
	}
	if c.Yahoo.TokenURL == "" {
		c.Yahoo.TokenURL = yahooTokenURL
	}
	if c.Yahoo.APIURL == "" {
		c.Yahoo.APIURL = yahooAPIURL
	}
	if c.Yahoo.OIDCIssuer == "" {
		c.Yahoo.OIDCIssuer = yahooIssuer
	}
	if c.Yahoo.Timeout == 0 {
		c.Yahoo.Timeout = 20 * time.Second
	}
	if c.Yahoo.RateLimit == 0 {
		c.Yahoo.RateLimit = 5
	}

	if c.Together.Model == "" {
		c.Together.Model = togetherModel
	}
	if c.Together.Timeout == 0 {
		c.Together.Timeout = 60 * time.Second
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
