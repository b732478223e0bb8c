package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var ErrModified = fmt.Errorf("object modified")
var ErrNotExist = fmt.Errorf("object not found")

// ErrPathCollision is reported if a node path is already in use,
// typically because of a concurrent allocation of the same path.
var ErrPathCollision = fmt.Errorf("path collision")

// GenerationAccess is implemented by rows featuring a generation
// number. It is required for race condition detection in updates.
type GenerationAccess interface {
	GetGeneration() int64
	SetGeneration(int64)
}

type Generation struct {
	Generation int64 `json:"generation"`
}

func (g *Generation) GetGeneration() int64 {
	return g.Generation
}

func (g *Generation) SetGeneration(i int64) {
	g.Generation = i
}

// IsUniqueViolation checks whether an error is caused by a unique
// constraint of one of the supported database drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsRetryable reports errors caused by concurrent modifications.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrModified) || errors.Is(err, ErrPathCollision)
}

// NotExist creates an error matching ErrNotExist.
func NotExist(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotExist)
}
