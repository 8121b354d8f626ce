// Package config loads the server configuration from a TOML file with one
// section per environment, then applies environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"-"`

	Addr   string `toml:"addr"`
	WebDir string `toml:"web_dir"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	SentryDSN     string `toml:"-"`
	// storage
	DatabaseURL string `toml:"-"`
	// advisor
	OpenAIAPIKey    string   `toml:"-"`
	OpenAIBaseURL   string   `toml:"openai_base_url"`
	OpenAIModel     string   `toml:"openai_model"`
	AdvisorTimeout  Duration `toml:"advisor_timeout"`
	AIRatePerMinute int      `toml:"ai_rate_per_minute"`
	RedisAddr       string   `toml:"redis_addr"`
	RedisPassword   string   `toml:"-"`
	// auth
	TrustForwardAuth  bool     `toml:"trust_forward_auth"`
	InitialUser       string   `toml:"-"`
	InitialPassword   string   `toml:"-"`
	OIDCIssuer        string   `toml:"oidc_issuer"`
	OIDCClientID      string   `toml:"oidc_client_id"`
	OIDCClientSecret  string   `toml:"-"`
	OIDCRedirectURL   string   `toml:"oidc_redirect_url"`
	SessionPruneEvery Duration `toml:"session_prune_every"`
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// OIDCEnabled reports whether SSO is fully configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != "" && c.OIDCRedirectURL != ""
}

// Load reads the section for env from the TOML file at path. A missing file
// is not an error: defaults and the environment still apply.
func Load(env, path string) (*Config, error) {
	var cfg *Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var t Toml
			if _, err := toml.DecodeFile(path, &t); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
			if cfg, err = t.Get(env); err != nil {
				return nil, err
			}
		}
	}
	if cfg == nil {
		if _, err := (&Toml{}).Get(env); err != nil {
			return nil, err
		}
		cfg = &Config{}
	}
	cfg.Environment = strings.ToLower(env)
	cfg.applyDefaults()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.WebDir == "" {
		c.WebDir = "web"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o-mini"
	}
	if c.AdvisorTimeout.Duration == 0 {
		c.AdvisorTimeout.Duration = 30 * time.Second
	}
	if c.SessionPruneEvery.Duration == 0 {
		c.SessionPruneEvery.Duration = time.Hour
	}
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Addr)
	str("WEB_DIR", &c.WebDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("DATABASE_URL", &c.DatabaseURL)
	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	str("OPENAI_MODEL", &c.OpenAIModel)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("SENTRY_DSN", &c.SentryDSN)
	str("INITIAL_USER", &c.InitialUser)
	str("INITIAL_PASSWORD", &c.InitialPassword)
	str("OIDC_ISSUER", &c.OIDCIssuer)
	str("OIDC_CLIENT_ID", &c.OIDCClientID)
	str("OIDC_CLIENT_SECRET", &c.OIDCClientSecret)
	str("OIDC_REDIRECT_URL", &c.OIDCRedirectURL)

	if v := getenv("TRUST_FORWARD_AUTH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRUST_FORWARD_AUTH: %w", err)
		}
		c.TrustForwardAuth = b
	}
	if v := getenv("AI_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("AI_RATE_PER_MINUTE: invalid value %q", v)
		}
		c.AIRatePerMinute = n
	}
	if c.SentryDSN != "" {
		c.SentryEnabled = true
	}
	return nil
}
