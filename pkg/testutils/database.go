package testutils

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/widgy/pkg/database"
)

// TempDatabase opens a migrated SQLite database in a temporary
// directory. It is closed and removed after the current test.
func TempDatabase() *database.DB {
	dir, err := os.MkdirTemp("", "widgy-")
	ExpectWithOffset(1, err).To(Succeed())
	db, err := database.Open(context.Background(), &database.Specification{
		Driver: database.DRIVER_SQLITE,
		DSN:    "file:" + filepath.Join(dir, "widgy.db"),
	})
	ExpectWithOffset(1, err).To(Succeed())
	DeferCleanup(func() {
		db.Close()
		os.RemoveAll(dir)
	})
	ExpectWithOffset(1, db.Migrate(context.Background())).To(Succeed())
	return db
}
