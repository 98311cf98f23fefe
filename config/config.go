// Package config reads midloop's settings from the environment. A .env file
// in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"midloop/notifier"
	"midloop/scheduler"
)

const (
	DefaultAddr     = ":8080"
	DefaultDataPath = "./data"
	DefaultCacheTTL = 5 * time.Minute
)

type Config struct {
	Addr string
	// DataPath holds the SQLite database.
	DataPath string
	// DataDir serves data files from disk; DataBaseURL fetches them over HTTP.
	// The URL wins when both are set.
	DataDir         string
	DataBaseURL     string
	CacheTTL        time.Duration
	RefreshSchedule string
	RunAtStartup    bool
	StrictMetadata  bool
	Location        *time.Location
	Email           notifier.EmailConfig
}

// Load reads the environment. Malformed values are errors rather than
// silently replaced defaults.
func Load() (Config, error) {
	cfg := Config{
		Addr:            env("MIDLOOP_ADDR", DefaultAddr),
		DataPath:        env("DATA_PATH", DefaultDataPath),
		DataDir:         env("DATA_DIR", ""),
		DataBaseURL:     env("DATA_BASE_URL", ""),
		RefreshSchedule: env("REFRESH_SCHEDULE", scheduler.DefaultSchedule),
		Email: notifier.EmailConfig{
			SMTPHost:       env("EMAIL_SMTP_HOST", ""),
			Username:       env("EMAIL_USERNAME", ""),
			SenderEmail:    env("EMAIL_SENDER", ""),
			SenderPassword: env("EMAIL_PASSWORD", ""),
			RecipientEmail: env("EMAIL_RECIPIENT", ""),
		},
	}

	var err error
	if cfg.CacheTTL, err = envDuration("CACHE_TTL", DefaultCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.RunAtStartup, err = envBool("RUN_AT_STARTUP", false); err != nil {
		return Config{}, err
	}
	if cfg.StrictMetadata, err = envBool("STRICT_METADATA", false); err != nil {
		return Config{}, err
	}
	if cfg.Email.SMTPPort, err = envInt("EMAIL_SMTP_PORT", 587); err != nil {
		return Config{}, err
	}

	tz := env("TIMEZONE", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if cfg.DataDir == "" && cfg.DataBaseURL == "" {
		cfg.DataDir = "./public"
	}
	return cfg, nil
}

// Fields summarises the config for logging, without the password.
func (c Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("addr", c.Addr),
		zap.String("data_path", c.DataPath),
		zap.String("data_dir", c.DataDir),
		zap.String("data_base_url", c.DataBaseURL),
		zap.Duration("cache_ttl", c.CacheTTL),
		zap.String("schedule", c.RefreshSchedule),
		zap.String("timezone", c.Location.String()),
		zap.String("smtp_host", c.Email.SMTPHost),
		zap.Int("smtp_port", c.Email.SMTPPort),
		zap.String("smtp_password", mask(c.Email.SenderPassword)),
		zap.String("recipient", c.Email.RecipientEmail),
	}
}

// mask reports only whether a secret is set.
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

// envDuration accepts Go durations ("90s") or plain seconds ("300").
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	if n, err := cast.ToIntE(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
