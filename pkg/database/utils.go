package database

import (
	"strconv"
	"strings"
	"time"

	"github.com/mandelsoft/widgy/pkg/utils"
)

// Dialect covers the differences of the supported SQL databases.
type Dialect interface {
	Name() string
	// Rebind converts a query using ? placeholders into the
	// placeholder syntax of the database.
	Rebind(query string) string
}

type dialect struct {
	name     string
	numbered bool
}

var dialects = map[string]Dialect{
	DRIVER_SQLITE:   &dialect{name: DRIVER_SQLITE},
	DRIVER_POSTGRES: &dialect{name: DRIVER_POSTGRES, numbered: true},
	DRIVER_MYSQL:    &dialect{name: DRIVER_MYSQL},
}

func Drivers() []string {
	return utils.SortedKeys(dialects)
}

func GetDialect(driver string) Dialect {
	return dialects[driver]
}

func (d *dialect) Name() string {
	return d.name
}

func (d *dialect) Rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	n := 0
	quoted := false
	for _, c := range query {
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// FormatTime provides the stored representation of a point in time.
// Lexical order of stored values matches time order.
func FormatTime(t time.Time) string {
	return utils.NewTimestampFor(t).String()
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// NullString maps the empty string to a NULL value.
func NullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
