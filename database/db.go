package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/config"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const customTLS = "custom"

var DB *gorm.DB

// Connect opens the MySQL pool that holds admin accounts and revoked tokens.
func Connect(cfg config.MySQLConfig, verbose bool, log *zap.Logger) (*gorm.DB, error) {
	if DB != nil {
		return DB, nil
	}

	dsn := cfg.DSN
	if dsn == "" {
		if cfg.TLSVerify {
			if err := registerTLS(cfg); err != nil {
				return nil, err
			}
		}
		dsn = buildDSN(cfg)
		log.Info("connecting to mysql",
			zap.String("addr", net.JoinHostPort(cfg.Host, cfg.Port)),
			zap.String("database", cfg.Name),
			zap.String("user", cfg.User),
		)
	} else {
		log.Info("connecting to mysql with explicit DSN")
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if verbose {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	var db *gorm.DB
	var err error
	backoff := time.Second
	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		db, err = gorm.Open(gormmysql.Open(dsn), &gorm.Config{Logger: gormLogger})
		if err == nil {
			break
		}
		if attempt == cfg.ConnectRetries {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		log.Warn("mysql connect failed, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		time.Sleep(backoff)
		backoff *= 2
	}
	if db == nil {
		return nil, errors.New("mysql connect: no attempts made")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.PingOnConnect {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
	}

	DB = db
	return DB, nil
}

// buildDSN renders cfg with the driver formatter; ParseDSN reads it back
// unchanged.
func buildDSN(cfg config.MySQLConfig) string {
	c := mysqldriver.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	c.DBName = cfg.Name
	c.ParseTime = true
	c.Loc = time.Local
	c.Timeout = 10 * time.Second
	c.ReadTimeout = 10 * time.Second
	c.WriteTimeout = 10 * time.Second
	c.Params = map[string]string{"charset": "utf8mb4"}

	switch {
	case cfg.TLSVerify:
		c.TLSConfig = customTLS
	case cfg.TLSMode == "true", cfg.TLSMode == "preferred", cfg.TLSMode == "skip-verify":
		c.TLSConfig = cfg.TLSMode
	}
	return c.FormatDSN()
}

// registerTLS installs a verifying TLS profile with an optional private CA
// and client certificate.
func registerTLS(cfg config.MySQLConfig) error {
	tlsCfg := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	if cfg.TLSCAPath != "" {
		caCert, err := os.ReadFile(cfg.TLSCAPath)
		if err != nil {
			return fmt.Errorf("failed reading DB TLS CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return errors.New("failed to append CA certs")
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.TLSClientCert != "" && cfg.TLSClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSClientCert, cfg.TLSClientKey)
		if err != nil {
			return fmt.Errorf("failed to load client cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return mysqldriver.RegisterTLSConfig(customTLS, tlsCfg)
}
