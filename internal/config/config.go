package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
	"gopkg.in/yaml.v3"

	"flightlog/internal/domain/notification"
)

// DefaultPath is read when FLIGHTLOG_CONFIG is unset. A missing default file is not an error.
const DefaultPath = "config.yaml"

// Notification backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the full server configuration.
type Config struct {
	Env           string              `yaml:"env"`
	Server        ServerConfig        `yaml:"server"`
	API           APIConfig           `yaml:"api"`
	Security      SecurityConfig      `yaml:"security"`
	Notifications NotificationsConfig `yaml:"notifications"`
	UI            UIConfig            `yaml:"ui"`
	Log           LogConfig           `yaml:"log"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	ExposePerf        bool          `yaml:"expose_perf"` // serve /debug/perf
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 means no client timeout
}

type SecurityConfig struct {
	CSRFKey            string   `yaml:"csrf_key"`    // 64 hex characters
	CSRFSecret         string   `yaml:"csrf_secret"` // passphrase, stretched with HKDF
	TrustedOrigins     []string `yaml:"trusted_origins"`
	RateLimitPerSecond int      `yaml:"rate_limit_per_second"`
}

type NotificationsConfig struct {
	Backend       string        `yaml:"backend"`
	Mode          string        `yaml:"mode"`
	TTL           time.Duration `yaml:"ttl"` // 0 selects the mode's default
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SQLitePath    string        `yaml:"sqlite_path"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix"`
}

type UIConfig struct {
	AllowFirstClass bool          `yaml:"allow_first_class"`
	StatsMonths     int           `yaml:"stats_months"`
	MaxBarPx        float64       `yaml:"max_bar_px"`
	MinBarPx        float64       `yaml:"min_bar_px"`
	RedirectDelay   time.Duration `yaml:"redirect_delay"`
}

type LogConfig struct {
	Format      string `yaml:"format"` // text or json
	Level       string `yaml:"level"`
	SlowQueryMs int    `yaml:"slow_query_ms"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		API: APIConfig{BaseURL: "http://localhost:5000"},
		Security: SecurityConfig{
			TrustedOrigins:     []string{"localhost:8080", "127.0.0.1:8080"},
			RateLimitPerSecond: 10,
		},
		Notifications: NotificationsConfig{
			Backend:       BackendMemory,
			Mode:          string(notification.ModeStack),
			SweepInterval: time.Minute,
			SQLitePath:    "flightlog.db",
			RedisAddr:     "localhost:6379",
			RedisPrefix:   "flightlog",
		},
		UI: UIConfig{
			AllowFirstClass: true,
			StatsMonths:     12,
			MaxBarPx:        120,
			MinBarPx:        2,
			RedirectDelay:   1500 * time.Millisecond,
		},
		Log: LogConfig{Format: "text", Level: "info", SlowQueryMs: 50},
	}
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; variables already set win.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file at path, then
// FLIGHTLOG_* variables from getenv.
// PRE: getenv is non-nil
// POST: the returned config has passed Validate
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults and environment only
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays FLIGHTLOG_* variables.
func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("FLIGHTLOG_ENV", &cfg.Env)
	str("FLIGHTLOG_ADDR", &cfg.Server.Addr)
	flag("FLIGHTLOG_EXPOSE_PERF", &cfg.Server.ExposePerf)
	str("FLIGHTLOG_API_BASE_URL", &cfg.API.BaseURL)
	dur("FLIGHTLOG_API_TIMEOUT", &cfg.API.Timeout)
	str("FLIGHTLOG_CSRF_KEY", &cfg.Security.CSRFKey)
	str("FLIGHTLOG_CSRF_SECRET", &cfg.Security.CSRFSecret)
	num("FLIGHTLOG_RATE_LIMIT", &cfg.Security.RateLimitPerSecond)
	if v := strings.TrimSpace(getenv("FLIGHTLOG_TRUSTED_ORIGINS")); v != "" {
		cfg.Security.TrustedOrigins = strings.Split(v, ",")
	}
	str("FLIGHTLOG_NOTIFY_BACKEND", &cfg.Notifications.Backend)
	str("FLIGHTLOG_NOTIFY_MODE", &cfg.Notifications.Mode)
	dur("FLIGHTLOG_NOTIFY_TTL", &cfg.Notifications.TTL)
	dur("FLIGHTLOG_NOTIFY_SWEEP", &cfg.Notifications.SweepInterval)
	str("FLIGHTLOG_SQLITE_PATH", &cfg.Notifications.SQLitePath)
	str("FLIGHTLOG_REDIS_ADDR", &cfg.Notifications.RedisAddr)
	str("FLIGHTLOG_REDIS_PASSWORD", &cfg.Notifications.RedisPassword)
	num("FLIGHTLOG_REDIS_DB", &cfg.Notifications.RedisDB)
	flag("FLIGHTLOG_ALLOW_FIRST_CLASS", &cfg.UI.AllowFirstClass)
	num("FLIGHTLOG_STATS_MONTHS", &cfg.UI.StatsMonths)
	dur("FLIGHTLOG_REDIRECT_DELAY", &cfg.UI.RedirectDelay)
	str("FLIGHTLOG_LOG_FORMAT", &cfg.Log.Format)
	str("FLIGHTLOG_LOG_LEVEL", &cfg.Log.Level)
	num("FLIGHTLOG_SLOW_QUERY_MS", &cfg.Log.SlowQueryMs)

	return errors.Join(errs...)
}

// Validate checks every field that has a closed set of values.
// POST: API.BaseURL has no trailing slash
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(strings.TrimSpace(c.API.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an http(s) URL with a host, got %q", c.API.BaseURL))
	} else {
		c.API.BaseURL = strings.TrimRight(u.String(), "/")
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout cannot be negative"))
	}

	switch c.Notifications.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("notifications.backend must be one of: memory, sqlite, redis, got %q", c.Notifications.Backend))
	}
	if _, err := notification.ParseMode(c.Notifications.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Notifications.TTL < 0 {
		errs = append(errs, errors.New("notifications.ttl cannot be negative"))
	}
	if c.Notifications.SweepInterval <= 0 {
		errs = append(errs, errors.New("notifications.sweep_interval must be positive"))
	}

	if c.UI.StatsMonths <= 0 {
		errs = append(errs, errors.New("ui.stats_months must be positive"))
	}
	if c.UI.MaxBarPx <= 0 || c.UI.MinBarPx < 0 || c.UI.MinBarPx > c.UI.MaxBarPx {
		errs = append(errs, errors.New("ui bar sizes must satisfy 0 <= min_bar_px <= max_bar_px, max_bar_px > 0"))
	}
	if c.Security.RateLimitPerSecond <= 0 {
		errs = append(errs, errors.New("security.rate_limit_per_second must be positive"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// NotificationMode returns the validated notification mode.
func (c Config) NotificationMode() notification.Mode {
	m, _ := notification.ParseMode(c.Notifications.Mode)
	return m
}

// CSRFKey returns the 32-byte gorilla/csrf key.
// PRE: the config has been validated
// POST: from csrf_key when set; else derived from csrf_secret; else random
// outside production. Production without either is an error.
func (c Config) CSRFKey() ([]byte, error) {
	if c.Security.CSRFKey != "" {
		key, err := hex.DecodeString(c.Security.CSRFKey)
		if err != nil || len(key) != 32 {
			return nil, errors.New("FLIGHTLOG_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if c.Security.CSRFSecret != "" {
		key := make([]byte, 32)
		r := hkdf.New(sha256.New, []byte(c.Security.CSRFSecret), []byte("flightlog"), []byte("csrf-auth-key"))
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("derive csrf key: %w", err)
		}
		return key, nil
	}
	if c.IsProduction() {
		return nil, errors.New("FLIGHTLOG_CSRF_KEY or FLIGHTLOG_CSRF_SECRET is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("csrf_key_random", "detail", "forms will not survive a restart; set FLIGHTLOG_CSRF_KEY or FLIGHTLOG_CSRF_SECRET")
	return key, nil
}

// NewLogger builds the slog logger described by the log section.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(l.Level)
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}
