package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

const (
	// StorePostgres persists sessions in the bot_sessions table.
	StorePostgres = "postgres"
	// StoreRedis persists sessions as JSON values in Redis.
	StoreRedis = "redis"
	// StoreMemory keeps sessions in process memory; intended for local runs only.
	StoreMemory = "memory"

	// LockLocal serializes events per conversation inside one process.
	LockLocal = "local"
	// LockRedis serializes events per conversation across processes.
	LockRedis = "redis"
)

// SessionConfig selects the session store backend and the per-conversation lock.
type SessionConfig struct {
	Store string `yaml:"store" envconfig:"SESSION_STORE"`
	Lock  string `yaml:"lock" envconfig:"SESSION_LOCK"`
	// TTLSeconds applies to the redis store only; 0 keeps sessions forever.
	TTLSeconds int `yaml:"ttl_seconds" envconfig:"SESSION_TTL_SECONDS"`
	// LockWaitMS bounds how long an event waits for its conversation lock.
	LockWaitMS int `yaml:"lock_wait_ms" envconfig:"SESSION_LOCK_WAIT_MS"`
	// LockTTLMS is the redis lock lease. It must outlast the account call
	// made while the lock is held.
	LockTTLMS int `yaml:"lock_ttl_ms" envconfig:"SESSION_LOCK_TTL_MS"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir is resolved against the working directory when relative.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// AccountConfig points at the remote account service.
type AccountConfig struct {
	BaseURL   string `yaml:"base_url" envconfig:"ACCOUNT_BASE_URL"`
	TimeoutMS int    `yaml:"timeout_ms" envconfig:"ACCOUNT_TIMEOUT_MS"`
}

// FormsConfig lists external web forms opened from the bot.
type FormsConfig struct {
	BirthdayURL string `yaml:"birthday_url" envconfig:"BIRTHDAY_FORM_URL"`
}

// OpsConfig configures the health and metrics HTTP listener. Empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Account   AccountConfig   `yaml:"account"`
	Forms     FormsConfig     `yaml:"forms"`
	Ops       OpsConfig       `yaml:"ops"`
}

// CoreConfig lets the runner treat Config as its own carrier.
func (c *Config) CoreConfig() *Config { return c }

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeAccount(cfg); err != nil {
		return err
	}
	return normalizeSession(cfg)
}

// lockMarginMS is the headroom kept above the account timeout for the store
// load and save done under the same lock.
const lockMarginMS = 5000

func normalizeSession(cfg *Config) error {
	store := strings.ToLower(strings.TrimSpace(cfg.Session.Store))
	if store == "" {
		store = StorePostgres
	}
	switch store {
	case StorePostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when session.store is 'postgres'")
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 10
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.MigrationsDir == "" {
			cfg.Database.MigrationsDir = "migrations"
		}
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("invalid session.store %q; allowed: postgres, redis, memory", cfg.Session.Store)
	}
	cfg.Session.Store = store

	lock := strings.ToLower(strings.TrimSpace(cfg.Session.Lock))
	if lock == "" {
		lock = LockLocal
	}
	if lock != LockLocal && lock != LockRedis {
		return fmt.Errorf("invalid session.lock %q; allowed: local, redis", cfg.Session.Lock)
	}
	cfg.Session.Lock = lock

	if (store == StoreRedis || lock == LockRedis) && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return fmt.Errorf("redis.addr is required when session.store or session.lock is 'redis'")
	}
	if cfg.Session.TTLSeconds < 0 {
		return fmt.Errorf("session.ttl_seconds must be >= 0")
	}
	// A second event for a key waits out one full account call before
	// reporting the store unavailable.
	if cfg.Session.LockWaitMS <= 0 {
		cfg.Session.LockWaitMS = cfg.Account.TimeoutMS + lockMarginMS
	}
	if cfg.Session.LockTTLMS < 0 {
		return fmt.Errorf("session.lock_ttl_ms must be >= 0")
	}
	if cfg.Session.LockTTLMS == 0 {
		cfg.Session.LockTTLMS = max(30000, cfg.Account.TimeoutMS+4*lockMarginMS)
	}
	if lock == LockRedis && cfg.Session.LockTTLMS <= cfg.Account.TimeoutMS+lockMarginMS {
		return fmt.Errorf("session.lock_ttl_ms (%d) must exceed account.timeout_ms (%d) by more than %dms",
			cfg.Session.LockTTLMS, cfg.Account.TimeoutMS, lockMarginMS)
	}
	return nil
}

func normalizeAccount(cfg *Config) error {
	raw := strings.TrimSpace(cfg.Account.BaseURL)
	if raw == "" {
		return fmt.Errorf("account.base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid account.base_url %q", cfg.Account.BaseURL)
	}
	cfg.Account.BaseURL = strings.TrimRight(raw, "/")
	if cfg.Account.TimeoutMS <= 0 {
		cfg.Account.TimeoutMS = 10000
	}
	if strings.TrimSpace(cfg.Forms.BirthdayURL) == "" {
		return fmt.Errorf("forms.birthday_url is required")
	}
	return nil
}

// UsesRedis reports whether any configured component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Session.Store == StoreRedis || c.Session.Lock == LockRedis
}
