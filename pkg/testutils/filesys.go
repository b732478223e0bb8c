package testutils

import (
	"github.com/mandelsoft/vfs/pkg/layerfs"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/readonlyfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TestDataFileSystem provides a directory as root of a file system.
// Unless readonly, modifications are kept in a temporary layer
// removed after the current test.
func TestDataFileSystem(dir string, readonly bool) vfs.FileSystem {
	base, err := projectionfs.New(osfs.OsFs, dir)
	ExpectWithOffset(1, err).To(Succeed())
	if readonly {
		return readonlyfs.New(base)
	}
	tmp, err := osfs.NewTempFileSystem()
	ExpectWithOffset(1, err).To(Succeed())
	DeferCleanup(func() { vfs.Cleanup(tmp) })
	return layerfs.New(tmp, base)
}
