package app_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/mandelsoft/widgy/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/widgy/cmds/widgyctl/app"
	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/exchange"
	"github.com/mandelsoft/widgy/pkg/tree"
)

var _ = Describe("widgyctl", func() {
	var fs vfs.FileSystem
	var dsn string

	executeArgs := func(args ...string) (string, error) {
		buf := bytes.NewBuffer(nil)
		cmd := app.New(fs)
		cmd.SetOut(buf)
		cmd.SetErr(bytes.NewBuffer(nil))
		cmd.SetArgs(args)
		err := cmd.Execute()
		return buf.String(), err
	}
	execute := func(args ...string) (string, error) {
		return executeArgs(append([]string{"--db", dsn}, args...)...)
	}
	run := func(args ...string) string {
		out, err := execute(args...)
		ExpectWithOffset(1, err).To(Succeed())
		return out
	}
	// field returns the n-th word of the output.
	field := func(out string, n int) string {
		return strings.Fields(out)[n]
	}
	trackers := func() []map[string]interface{} {
		var list []map[string]interface{}
		MustBeSuccessful(json.Unmarshal([]byte(run("tracker", "list", "-o", "json")), &list))
		return list
	}

	BeforeEach(func() {
		dir := Must(os.MkdirTemp("", "widgyctl-"))
		DeferCleanup(func() { os.RemoveAll(dir) })
		dsn = "file:" + filepath.Join(dir, "widgy.db")
		fs = memoryfs.New()
	})

	It("migrates", func() {
		Expect(run("migrate")).To(Equal("schema version 2 (sqlite)\n"))
		Expect(run("--timeout", "1m", "migrate")).To(Equal("schema version 2 (sqlite)\n"))
	})

	It("rejects invalid log levels", func() {
		_, err := execute("--log-level", "chatty", "migrate")
		Expect(err).To(MatchError(ContainSubstring("invalid log level")))
	})

	It("reads the configured database from the config file", func() {
		dir := Must(os.MkdirTemp("", "widgyctl-config-"))
		DeferCleanup(func() { os.RemoveAll(dir) })
		MustBeSuccessful(os.Setenv("WIDGYCTL_TEST_DIR", dir))
		DeferCleanup(os.Unsetenv, "WIDGYCTL_TEST_DIR")

		MustBeSuccessful(fs.MkdirAll("/etc", 0o700))
		MustBeSuccessful(vfs.WriteFile(fs, "/etc/widgy.yaml", []byte(`
database:
  driver: sqlite
  dsn: file:${WIDGYCTL_TEST_DIR}/configured.db
logging:
  level: debug
`), 0o600))

		out, err := executeArgs("--config", "/etc/widgy.yaml", "migrate")
		MustBeSuccessful(err)
		Expect(out).To(Equal("schema version 2 (sqlite)\n"))
		Expect(filepath.Join(dir, "configured.db")).To(BeAnExistingFile())

		out, err = executeArgs("--config", "/etc/widgy.yaml", "tracker", "create", "--title", "configured")
		MustBeSuccessful(err)
		Expect(out).To(HavePrefix("tracker "))
		Expect(run("tracker", "list")).NotTo(ContainSubstring("configured"))
		Expect(Must(executeArgs("--db", "file:"+filepath.Join(dir, "configured.db"), "tracker", "list"))).To(ContainSubstring("configured"))
	})

	Context("trees", func() {
		var tracker, wc string

		BeforeEach(func() {
			out := run("tracker", "create", "--title", "home")
			tracker = field(out, 1)
			wc = strings.TrimSuffix(field(out, 5), ")")
		})

		It("lists trackers", func() {
			list := trackers()
			Expect(len(list)).To(Equal(1))
			Expect(list[0]["id"]).To(Equal(tracker))
			Expect(list[0]["workingCopy"]).To(Equal(wc))
			Expect(run("tracker", "list")).To(ContainSubstring("home"))
		})

		It("manipulates nodes", func() {
			Expect(run("node", "add", wc, "section", "title=intro")).To(HaveSuffix("added at 00010001\n"))
			Expect(run("node", "add", "00010001", "markdown", "content=hello")).To(HaveSuffix("added at 000100010001\n"))
			Expect(run("node", "add", "00010001", "markdown", "content=first", "-p", "first-child")).To(HaveSuffix("added at 000100010001\n"))
			Expect(run("node", "add", "00010001", "callout", "text=note", "-p", "right")).To(HaveSuffix("added at 00010002\n"))

			out := run("tree", tracker)
			Expect("\n" + out).To(Equal(`
POSITION TYPE         DESCRIPTION
/        layout       home
1          section    intro
1.1          markdown first
1.2          markdown hello
2          callout    note
`))

			run("node", "move", "00010002", "00010001", "-p", "first-child")
			Expect(run("tree", wc)).To(ContainSubstring("1.1          callout"))

			run("node", "set", "000100010003", "table", "--data", "header: [a, b]\nrows:\n- [x, y]\n")
			Expect(run("tree", wc)).To(ContainSubstring("1.3          table    table 1x2"))

			Expect(run("node", "delete", "000100010001")).To(Equal("000100010001: deleted\n"))
			Expect(run("tree", wc)).NotTo(ContainSubstring("callout"))
		})

		It("rejects invalid content", func() {
			_, err := execute("node", "add", wc, "video", "url=x")
			Expect(err).To(MatchError(content.ErrUnknownType))

			run("node", "add", wc, "markdown", "content=leaf")
			_, err = execute("node", "add", "00010001", "markdown", "content=nested")
			Expect(err).To(MatchError(content.ErrIncompatible))

			_, err = execute("node", "add", wc, "markdown", "-p", "left")
			Expect(err).To(MatchError(tree.ErrInvalidPosition))
		})

		It("commits and reverts", func() {
			run("node", "add", wc, "markdown", "content=first")
			commit := field(run("commit", tracker, "-m", "initial", "-a", "alice"), 1)

			out := run("history", tracker)
			Expect(out).To(ContainSubstring(commit))
			Expect(out).To(ContainSubstring("alice"))
			Expect(out).To(ContainSubstring("live"))

			Expect(run("diff", tracker)).To(Equal("no differences\n"))
			run("node", "add", wc, "markdown", "content=second")
			Expect("\n" + run("diff", tracker)).To(Equal(`
CHANGE POSITION TYPE     DESCRIPTION
+      2        markdown second
`))

			var info map[string]interface{}
			MustBeSuccessful(json.Unmarshal([]byte(run("tracker", "show", tracker, "-o", "json")), &info))
			Expect(info["changed"]).To(BeTrue())
			Expect(info["live"]).To(Equal(commit))
			Expect(info["head"]).To(Equal(commit))

			run("reset", tracker)
			Expect(run("diff", tracker)).To(Equal("no differences\n"))
			MustBeSuccessful(json.Unmarshal([]byte(run("tracker", "show", tracker, "-o", "json")), &info))
			Expect(info["changed"]).To(BeFalse())
			Expect(info["workingCopy"]).NotTo(Equal(wc))
		})

		It("schedules commits", func() {
			run("commit", tracker, "-m", "later", "-P", "2999-01-01T00:00:00Z")
			Expect(run("history", tracker)).To(ContainSubstring("scheduled"))
		})

		It("exports and imports trees", func() {
			run("node", "add", wc, "section", "title=intro")
			run("node", "add", "00010001", "markdown", "content=hello")
			Expect(run("export", tracker, "-f", "/export/home.yaml")).To(Equal("3 nodes exported to /export/home.yaml\n"))
			doc := Must(exchange.ReadFile(fs, "/export/home.yaml"))
			Expect(doc.Root.Count()).To(Equal(3))

			Expect(run("import", "/export/home.yaml")).To(Equal("3 nodes imported as 0002\n"))
			Expect(run("import", "/export/home.yaml", "--into", "0002")).To(Equal("2 nodes imported into 0002\n"))
			Expect(run("import", "/export/home.yaml", "--tracker")).To(ContainSubstring("with 3 nodes"))
			Expect(len(trackers())).To(Equal(2))

			Expect(run("export", "0002")).To(ContainSubstring("version: widgy/v1"))
		})
	})

	Context("review", func() {
		It("gates reviewed commits", func() {
			tracker := field(run("tracker", "create", "--title", "news", "--reviewed"), 1)
			commit := field(run("commit", tracker, "-m", "draft"), 1)

			Expect(run("pending")).To(ContainSubstring(commit))
			Expect(run("history", tracker)).To(ContainSubstring("pending"))

			Expect(run("approve", commit, "-a", "bob")).To(HavePrefix(commit + ": approved by bob"))
			Expect(run("approve", commit, "-a", "carol")).To(HavePrefix(commit + ": approved by bob"))
			Expect(run("pending", tracker)).To(Equal("no pending commit\n"))
			Expect(run("history", tracker)).To(ContainSubstring("live"))
		})

		It("uses the configured review default", func() {
			MustBeSuccessful(vfs.WriteFile(fs, "/widgy.yaml", []byte("review:\n  required: true\n"), 0o600))
			tracker := field(run("--config", "/widgy.yaml", "tracker", "create"), 1)
			run("commit", tracker)
			Expect(run("pending", tracker)).NotTo(Equal("no pending commit\n"))
		})

		It("rejects approvals of unreviewed commits", func() {
			tracker := field(run("tracker", "create"), 1)
			commit := field(run("commit", tracker), 1)
			_, err := execute("approve", commit)
			Expect(err).To(MatchError("approval failed"))
		})
	})

	It("seeds demo pages", func() {
		out := run("seed", "2", "--seed", "1", "--commit", "-n", "2")
		Expect(strings.Count(out, "created")).To(Equal(2))
		Expect(strings.Count(out, "commit")).To(Equal(2))
		Expect(len(trackers())).To(Equal(2))
	})
})
