package database

import (
	"strings"
	"testing"

	"github.com/Digitallaureate/kabirFirstBackend/config"

	mysqldriver "github.com/go-sql-driver/mysql"
)

func TestBuildDSN(t *testing.T) {
	cfg := config.MySQLConfig{
		Host: "db.internal", Port: "3307", User: "admin", Password: "p@ss:word",
		Name: "kabir_admin", TLSMode: "true",
	}
	dsn := buildDSN(cfg)

	parsed, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("dsn does not parse: %v (%s)", err, dsn)
	}
	if parsed.Passwd != "p@ss:word" || parsed.Addr != "db.internal:3307" || parsed.DBName != "kabir_admin" {
		t.Fatalf("unexpected parsed config: %+v", parsed)
	}
	if !parsed.ParseTime {
		t.Fatalf("expected parseTime")
	}
	if !strings.Contains(dsn, "tls=true") {
		t.Fatalf("expected tls=true in %s", dsn)
	}
}

func TestBuildDSNTLSModes(t *testing.T) {
	if dsn := buildDSN(config.MySQLConfig{Host: "h", Port: "3306", TLSMode: "false"}); strings.Contains(dsn, "tls=") {
		t.Fatalf("expected no tls param, got %s", dsn)
	}
	if dsn := buildDSN(config.MySQLConfig{Host: "h", Port: "3306", TLSVerify: true}); !strings.Contains(dsn, "tls="+customTLS) {
		t.Fatalf("expected custom tls profile, got %s", dsn)
	}
}
