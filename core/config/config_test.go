package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "bot"
	cfg.Account.BaseURL = "https://accounts.example.com/api/"
	cfg.Forms.BirthdayURL = "https://forms.example.com/birthday"
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.Session.Store != StorePostgres || cfg.Session.Lock != LockLocal {
		t.Fatalf("session = %+v, want postgres/local", cfg.Session)
	}
	if cfg.Account.BaseURL != "https://accounts.example.com/api" {
		t.Fatalf("base url not trimmed: %q", cfg.Account.BaseURL)
	}
	if cfg.Account.TimeoutMS != 10000 || cfg.Session.LockWaitMS != 15000 || cfg.Session.LockTTLMS != 30000 {
		t.Fatalf("timeouts not defaulted: %+v %+v", cfg.Account, cfg.Session)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Fatalf("sslmode = %q", cfg.Database.SSLMode)
	}
}

func TestNormalizeRedisRequiresAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Lock = "redis"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error without redis.addr")
	}
	cfg.Redis.Addr = "localhost:6379"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !cfg.UsesRedis() {
		t.Fatal("expected UsesRedis")
	}
}

func TestNormalizeRejectsShortRedisLease(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Store = "redis"
	cfg.Session.Lock = "redis"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Account.TimeoutMS = 60000
	cfg.Session.LockTTLMS = 30000
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for a lease shorter than the account timeout")
	}

	cfg.Session.LockTTLMS = 65000
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for a lease within the margin")
	}

	cfg.Session.LockTTLMS = 0
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Session.LockTTLMS <= cfg.Account.TimeoutMS+lockMarginMS {
		t.Fatalf("default lease %d does not outlast timeout %d", cfg.Session.LockTTLMS, cfg.Account.TimeoutMS)
	}
	if cfg.Session.LockWaitMS <= cfg.Account.TimeoutMS {
		t.Fatalf("lock wait %d does not outlast timeout %d", cfg.Session.LockWaitMS, cfg.Account.TimeoutMS)
	}
}

func TestNormalizeLocalLockIgnoresLease(t *testing.T) {
	cfg := validConfig()
	cfg.Account.TimeoutMS = 60000
	cfg.Session.LockTTLMS = 1000
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Session.LockWaitMS != 65000 {
		t.Fatalf("lock wait = %d, want 65000", cfg.Session.LockWaitMS)
	}
}

func TestNormalizeRejectsUnknownStore(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Store = "mongo"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestNormalizeRejectsBadAccountURL(t *testing.T) {
	cfg := validConfig()
	cfg.Account.BaseURL = "accounts"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for relative account url")
	}
}

func TestLoadOverlaysEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
telegram:
  token: from-file
session:
  store: memory
account:
  base_url: https://accounts.example.com
forms:
  birthday_url: https://forms.example.com/b
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Session.Store != StoreMemory {
		t.Fatalf("store = %q", cfg.Session.Store)
	}
}
