package database

import (
	"fmt"
	"strings"
	"time"
)

const (
	DRIVER_SQLITE   = "sqlite"
	DRIVER_POSTGRES = "postgres"
	DRIVER_MYSQL    = "mysql"
)

const DefaultBusyTimeout = 5 * time.Second

// Specification describes the database to connect to.
type Specification struct {
	Driver      string        `json:"driver"`
	DSN         string        `json:"dsn"`
	BusyTimeout time.Duration `json:"busyTimeout,omitempty"`
}

func (s *Specification) Validate() error {
	if _, ok := dialects[s.Driver]; !ok {
		return fmt.Errorf("unknown database driver %q (use one of %s)", s.Driver, strings.Join(Drivers(), ", "))
	}
	if s.DSN == "" {
		return fmt.Errorf("database dsn required")
	}
	return nil
}

func (s *Specification) dsn() string {
	switch s.Driver {
	case DRIVER_SQLITE:
		timeout := s.BusyTimeout
		if timeout <= 0 {
			timeout = DefaultBusyTimeout
		}
		return EnsureSQLitePragmas(s.DSN, timeout)
	default:
		return s.DSN
	}
}

// EnsureSQLitePragmas appends the connection settings required
// for serialized read-modify-write transactions to an SQLite DSN,
// if not explicitly given.
func EnsureSQLitePragmas(dsn string, busy time.Duration) string {
	lower := strings.ToLower(dsn)
	if !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addParam(dsn, fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()))
	}
	if !strings.Contains(lower, "_pragma=foreign_keys") {
		dsn = addParam(dsn, "_pragma=foreign_keys(1)")
	}
	if !IsMemoryDSN(dsn) && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addParam(dsn, "_pragma=journal_mode(WAL)")
	}
	if !strings.Contains(lower, "_txlock=") {
		dsn = addParam(dsn, "_txlock=immediate")
	}
	return dsn
}

func IsMemoryDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, ":memory:") || strings.HasPrefix(lower, "file::memory:") || strings.Contains(lower, "mode=memory")
}

func addParam(dsn, param string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + param
}
