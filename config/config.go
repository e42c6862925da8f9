package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSuggestionURL  = "https://us-central1-ecostory-b31b6.cloudfunctions.net/chatSuggestionData"
	defaultProcessTextURL = "https://ecostory-backend-36036911566.us-central1.run.app/process-text/"
)

// Config holds every environment-driven setting the service needs at start.
type Config struct {
	Env  string
	Port string

	Mongo      MongoConfig
	MySQL      MySQLConfig
	Redis      RedisConfig
	Downstream DownstreamConfig
	Events     EventsConfig
	R2         R2Config

	JWTSecret string

	AdminBootstrapUsername string
	AdminBootstrapPassword string

	// MagicWordCacheTTL bounds how stale the trigger catalog snapshot may be.
	// Zero reads the catalog on every event.
	MagicWordCacheTTL time.Duration
	UploadMaxBytes    int64
}

type MongoConfig struct {
	URI      string
	Database string
}

// MySQLConfig describes the relational store for admin accounts.
type MySQLConfig struct {
	// DSN, when set, is used verbatim.
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	// TLSMode is one of "true", "preferred", "skip-verify" or "false".
	TLSMode       string
	TLSVerify     bool
	TLSCAPath     string
	TLSClientCert string
	TLSClientKey  string

	ConnectRetries  int
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingOnConnect   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DownstreamConfig struct {
	SuggestionURL  string
	ProcessTextURL string
	Timeout        time.Duration
}

type EventsConfig struct {
	Watch   bool
	Workers int
	Secret  string
	// MaxAttempts is how often a failing event is retried before it is skipped.
	MaxAttempts int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

// Enabled reports whether object storage credentials are present.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// Load reads the process environment. Missing required settings are returned
// as an error so main can fail fast.
func Load() (*Config, error) {
	cfg := &Config{
		Env:  strings.ToLower(getenv("ENV", "development")),
		Port: getenv("PORT", "8080"),
		Mongo: MongoConfig{
			URI:      getenv("MONGO_URI", ""),
			Database: getenv("MONGO_DB", "kabir"),
		},
		MySQL: loadMySQL(),
		Redis: RedisConfig{
			Addr:     strings.ReplaceAll(getenv("REDIS_ADDR", ""), " ", ""),
			Password: getenv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Downstream: DownstreamConfig{
			SuggestionURL:  getenv("SUGGESTION_URL", defaultSuggestionURL),
			ProcessTextURL: getenv("PROCESS_TEXT_URL", defaultProcessTextURL),
			Timeout:        getEnvDuration("DOWNSTREAM_TIMEOUT_SEC", 30*time.Second),
		},
		Events: EventsConfig{
			Watch:       getEnvBool("EVENTS_WATCH", true),
			Workers:     getEnvInt("EVENTS_WORKERS", 4),
			Secret:      getenv("EVENTS_SECRET", ""),
			MaxAttempts: getEnvInt("EVENTS_MAX_ATTEMPTS", 3),
		},
		R2: R2Config{
			AccountID:       getenv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY", ""),
			Bucket:          getenv("R2_BUCKET_NAME", ""),
			PublicBaseURL:   strings.TrimRight(getenv("R2_PUBLIC_BASE_URL", ""), "/"),
		},
		JWTSecret:              getenv("JWT_SECRET", ""),
		AdminBootstrapUsername: getenv("ADMIN_BOOTSTRAP_USERNAME", ""),
		AdminBootstrapPassword: getenv("ADMIN_BOOTSTRAP_PASSWORD", ""),
		MagicWordCacheTTL:      getEnvDuration("MAGIC_WORD_CACHE_SEC", 0),
		UploadMaxBytes:         int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
	}

	var missing []string
	if cfg.Mongo.URI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, errors.New("required environment variables not set: " + strings.Join(missing, ", "))
	}
	if cfg.Events.Workers <= 0 {
		cfg.Events.Workers = 1
	}
	if cfg.Events.MaxAttempts <= 0 {
		cfg.Events.MaxAttempts = 1
	}
	return cfg, nil
}

func loadMySQL() MySQLConfig {
	c := MySQLConfig{
		DSN:             getenv("DB_DSN", ""),
		Host:            getenv("DB_HOST", "127.0.0.1"),
		Port:            getenv("DB_PORT", "3306"),
		User:            getenv("DB_USER", "root"),
		Password:        getenv("DB_PASS", ""),
		Name:            getenv("DB_NAME", "kabir_admin"),
		TLSMode:         strings.ToLower(getenv("DB_TLS", "true")),
		TLSVerify:       getEnvBool("DB_TLS_VERIFY", false),
		TLSCAPath:       getenv("DB_TLS_CA_PATH", ""),
		TLSClientCert:   getenv("DB_TLS_CLIENT_CERT", ""),
		TLSClientKey:    getenv("DB_TLS_CLIENT_KEY", ""),
		ConnectRetries:  getEnvInt("DB_CONNECT_RETRIES", 5),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		PingOnConnect:   getEnvBool("DB_PING_ON_CONNECT", true),
	}
	// read replicas use their own credentials
	if strings.ToLower(getenv("DB_ROLE", "write")) == "read" {
		if u := getenv("DB_READ_USER", ""); u != "" {
			c.User = u
			c.Password = getenv("DB_READ_PASS", "")
		}
	}
	if c.ConnectRetries < 1 {
		c.ConnectRetries = 1
	}
	return c
}

// IsDevelopment reports whether verbose logging and auto-migration apply.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return def
}

// getEnvDuration reads a number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return def
}
