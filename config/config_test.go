package config

import (
	"testing"
	"time"
)

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when MONGO_URI and JWT_SECRET are unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EVENTS_WORKERS", "0")
	t.Setenv("DOWNSTREAM_TIMEOUT_SEC", "")
	t.Setenv("MAGIC_WORD_CACHE_SEC", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Downstream.Timeout != 30*time.Second {
		t.Fatalf("expected 30s downstream timeout, got %s", cfg.Downstream.Timeout)
	}
	if cfg.Events.Workers != 1 {
		t.Fatalf("expected workers clamped to 1, got %d", cfg.Events.Workers)
	}
	if cfg.Downstream.SuggestionURL == "" || cfg.Downstream.ProcessTextURL == "" {
		t.Fatalf("expected downstream URLs to have defaults")
	}
	if cfg.R2.Enabled() {
		t.Fatalf("expected object storage disabled without credentials")
	}
	if cfg.MagicWordCacheTTL != 0 {
		t.Fatalf("expected the trigger catalog to be read live, got ttl %s", cfg.MagicWordCacheTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("MONGO_DB", "tours")
	t.Setenv("EVENTS_WATCH", "false")
	t.Setenv("DOWNSTREAM_TIMEOUT_SEC", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mongo.Database != "tours" {
		t.Fatalf("expected database override, got %s", cfg.Mongo.Database)
	}
	if cfg.Events.Watch {
		t.Fatalf("expected watcher disabled")
	}
	if cfg.Downstream.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.Downstream.Timeout)
	}
}

func TestLoad_MySQLReadRole(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_USER", "writer")
	t.Setenv("DB_ROLE", "read")
	t.Setenv("DB_READ_USER", "reader")
	t.Setenv("DB_READ_PASS", "pw")
	t.Setenv("DB_CONNECT_RETRIES", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MySQL.User != "reader" || cfg.MySQL.Password != "pw" {
		t.Fatalf("expected read credentials, got %s", cfg.MySQL.User)
	}
	if cfg.MySQL.ConnectRetries != 1 {
		t.Fatalf("expected retries clamped to 1, got %d", cfg.MySQL.ConnectRetries)
	}
	if cfg.MySQL.ConnMaxLifetime != time.Hour {
		t.Fatalf("expected 1h conn lifetime, got %s", cfg.MySQL.ConnMaxLifetime)
	}
}
