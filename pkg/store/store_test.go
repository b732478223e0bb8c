package store_test

import (
	"context"

	. "github.com/mandelsoft/widgy/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-test/deep"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/store"
	"github.com/mandelsoft/widgy/pkg/tree"
	"github.com/mandelsoft/widgy/pkg/widgets"
)

var _ = Describe("store", func() {
	ctx := context.Background()

	var db *database.DB
	var s *store.Store
	var root *tree.Node

	childPaths := func(id string) []string {
		var r []string
		for _, n := range Must(s.Children(ctx, id)) {
			r = append(r, n.Path)
		}
		return r
	}
	count := func(table string) int {
		var n int
		MustBeSuccessful(db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table).Scan(&n))
		return n
	}
	validate := func(id string) {
		t := Must(s.LoadTree(ctx, id))
		ExpectWithOffset(1, t.Validate()).To(Succeed())
	}

	BeforeEach(func() {
		db = TempDatabase()
		s = store.New(db, widgets.NewRegistry())
		root = Must(s.CreateRoot(ctx, widgets.NewLayout("home", "")))
	})

	Context("creation", func() {
		It("allocates root paths", func() {
			Expect(root.Path).To(Equal("0001"))
			Expect(root.Depth).To(Equal(0))
			other := Must(s.CreateRoot(ctx, widgets.NewLayout("other", "")))
			Expect(other.Path).To(Equal("0002"))
			Expect(len(Must(s.Roots(ctx)))).To(Equal(2))
		})

		It("adds children", func() {
			a := Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewMarkdown("a")))
			b := Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewMarkdown("b")))
			Expect(a.Path).To(Equal("00010001"))
			Expect(b.Path).To(Equal("00010002"))
			Expect(b.Depth).To(Equal(1))
			Expect(Must(s.GetNode(ctx, root.ID)).NumChild).To(Equal(2))
			Expect(count("contents")).To(Equal(3))
			validate(root.ID)
		})

		It("shifts siblings", func() {
			a := Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewMarkdown("a")))
			Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewMarkdown("b")))
			x := Must(s.AddSibling(ctx, a.ID, tree.Left, widgets.NewMarkdown("x")))
			Expect(x.Path).To(Equal("00010001"))
			Expect(Must(s.GetNode(ctx, a.ID)).Path).To(Equal("00010002"))
			Expect(childPaths(root.ID)).To(Equal([]string{"00010001", "00010002", "00010003"}))
			Expect(Must(s.FindNode(ctx, "00010003")).Content.Type).To(Equal(widgets.TYPE_MARKDOWN))
			validate(root.ID)
		})

		It("dereferences content", func() {
			a := Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewMarkdown("# Title")))
			c := Must(s.GetContent(ctx, a.ID))
			Expect(c).To(BeAssignableToTypeOf(&widgets.Markdown{}))
			Expect(c.(*widgets.Markdown).Content).To(Equal("# Title"))
		})

		It("rejects incompatible content", func() {
			a := Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewMarkdown("a")))
			_, err := s.AddChild(ctx, a.ID, tree.LastChild, widgets.NewMarkdown("b"))
			Expect(err).To(MatchError(content.ErrIncompatible))
			sec := Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewSection("s")))
			_, err = s.AddChild(ctx, sec.ID, tree.LastChild, widgets.NewSection("nested"))
			Expect(err).To(MatchError(content.ErrIncompatible))
			Expect(count("nodes")).To(Equal(3))
		})

		It("rejects invalid content", func() {
			_, err := s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewCallout("", "", "info"))
			Expect(err).To(MatchError(content.ErrInvalid))
			Expect(count("nodes")).To(Equal(1))
		})

		It("rejects siblings of roots", func() {
			_, err := s.AddSibling(ctx, root.ID, tree.Right, widgets.NewMarkdown("a"))
			Expect(err).To(MatchError(tree.ErrInvalidPosition))
		})

		It("reports missing nodes", func() {
			_, err := s.AddChild(ctx, "unknown", tree.LastChild, widgets.NewMarkdown("a"))
			Expect(err).To(MatchError(database.ErrNotExist))
		})
	})

	Context("modification", func() {
		var a, b, c, d *tree.Node

		BeforeEach(func() {
			a = Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewSection("a")))
			b = Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewSection("b")))
			c = Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewMarkdown("c")))
			d = Must(s.AddChild(ctx, a.ID, tree.LastChild, widgets.NewMarkdown("d")))
		})

		It("moves subtrees", func() {
			MustBeSuccessful(s.Move(ctx, a.ID, c.ID, tree.Right))
			Expect(Must(s.GetNode(ctx, a.ID)).Path).To(Equal("00010004"))
			Expect(Must(s.GetNode(ctx, d.ID)).Path).To(Equal("000100040001"))
			validate(root.ID)
		})

		It("moves into other parents", func() {
			MustBeSuccessful(s.Move(ctx, c.ID, b.ID, tree.FirstChild))
			n := Must(s.GetNode(ctx, c.ID))
			Expect(n.Path).To(Equal("000100020001"))
			Expect(n.Depth).To(Equal(2))
			Expect(Must(s.GetNode(ctx, b.ID)).NumChild).To(Equal(1))
			Expect(Must(s.GetNode(ctx, root.ID)).NumChild).To(Equal(2))
			validate(root.ID)
		})

		It("rejects moves into the own subtree", func() {
			Expect(s.Move(ctx, a.ID, d.ID, tree.LastChild)).To(MatchError(tree.ErrInvalidMove))
			Expect(s.Move(ctx, a.ID, d.ID, tree.Right)).To(MatchError(tree.ErrInvalidMove))
			Expect(Must(s.GetNode(ctx, d.ID)).Path).To(HavePrefix(Must(s.GetNode(ctx, a.ID)).Path))
			validate(root.ID)
		})

		It("rejects incompatible moves", func() {
			Expect(s.Move(ctx, b.ID, a.ID, tree.LastChild)).To(MatchError(content.ErrIncompatible))
			Expect(s.Move(ctx, a.ID, c.ID, tree.LastChild)).To(MatchError(content.ErrIncompatible))
		})

		It("rejects moves across trees", func() {
			other := Must(s.CreateRoot(ctx, widgets.NewLayout("other", "")))
			Expect(s.Move(ctx, a.ID, other.ID, tree.LastChild)).To(MatchError(tree.ErrInvalidMove))
		})

		It("deletes subtrees", func() {
			MustBeSuccessful(s.Delete(ctx, a.ID))
			_, err := s.GetNode(ctx, d.ID)
			Expect(err).To(MatchError(database.ErrNotExist))
			Expect(Must(s.GetNode(ctx, root.ID)).NumChild).To(Equal(2))
			Expect(count("contents")).To(Equal(3))
			Expect(childPaths(root.ID)).To(Equal([]string{"00010002", "00010003"}))
			validate(root.ID)
		})

		It("deletes unowned trees", func() {
			MustBeSuccessful(s.Delete(ctx, root.ID))
			Expect(count("nodes")).To(Equal(0))
			Expect(count("contents")).To(Equal(0))
		})

		It("protects owned trees", func() {
			_, err := db.ExecContext(ctx, "INSERT INTO trackers (id, working_copy, reviewed, generation, created) VALUES ('t', ?, 0, 0, 'now')", root.ID)
			MustBeSuccessful(err)
			Expect(s.Delete(ctx, root.ID)).To(MatchError(store.ErrProtected))
		})

		It("updates content", func() {
			MustBeSuccessful(s.SetContent(ctx, c.ID, widgets.NewMarkdown("changed")))
			Expect(Must(s.GetContent(ctx, c.ID)).(*widgets.Markdown).Content).To(Equal("changed"))
			Expect(Must(s.GetNode(ctx, c.ID)).Content.ID).To(Equal(c.Content.ID))
		})

		It("replaces content of another type", func() {
			MustBeSuccessful(s.SetContent(ctx, c.ID, widgets.NewCallout("note", "", "info")))
			n := Must(s.GetNode(ctx, c.ID))
			Expect(n.Content.Type).To(Equal(widgets.TYPE_CALLOUT))
			Expect(n.Content.ID).NotTo(Equal(c.Content.ID))
			Expect(count("contents")).To(Equal(5))
		})

		It("keeps children compatible", func() {
			Expect(s.SetContent(ctx, a.ID, widgets.NewMarkdown("leaf"))).To(MatchError(content.ErrIncompatible))
		})
	})

	Context("clones", func() {
		var a *tree.Node

		BeforeEach(func() {
			a = Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewSection("a")))
			Must(s.AddChild(ctx, a.ID, tree.LastChild, widgets.NewMarkdown("x")))
			Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewTable([]string{"h"}, []string{"v"})))
		})

		It("clones structurally identical", func() {
			clone := Must(s.CloneTree(ctx, root.ID, false))
			Expect(clone.Path).To(Equal("0002"))
			Expect(clone.Source).To(Equal(root.ID))
			validate(clone.ID)

			orig := Must(s.Snapshot(ctx, root.ID))
			copied := Must(s.Snapshot(ctx, clone.ID))
			Expect(deep.Equal(orig.Entries, copiedEntries(copied, orig))).To(BeNil())
			Expect(Must(copied.Hash())).To(Equal(Must(orig.Hash())))
			Expect(count("contents")).To(Equal(8))
		})

		It("decouples content", func() {
			clone := Must(s.CloneTree(ctx, root.ID, false))
			MustBeSuccessful(s.SetContent(ctx, a.ID, widgets.NewSection("changed")))
			Expect(Must(Must(s.Snapshot(ctx, clone.ID)).Hash())).NotTo(Equal(Must(Must(s.Snapshot(ctx, root.ID)).Hash())))
			Expect(Must(s.Children(ctx, clone.ID))[0].Content.ID).NotTo(Equal(a.Content.ID))
		})

		It("freezes clones", func() {
			clone := Must(s.CloneTree(ctx, root.ID, true))
			children := Must(s.Children(ctx, clone.ID))
			Expect(children[0].Frozen).To(BeTrue())

			_, err := s.AddChild(ctx, clone.ID, tree.LastChild, widgets.NewMarkdown("new"))
			Expect(err).To(MatchError(store.ErrFrozen))
			Expect(s.Move(ctx, children[1].ID, children[0].ID, tree.Left)).To(MatchError(store.ErrFrozen))
			Expect(s.Delete(ctx, children[0].ID)).To(MatchError(store.ErrFrozen))
			Expect(s.SetContent(ctx, children[1].ID, widgets.NewMarkdown("x"))).To(MatchError(store.ErrFrozen))
		})

		It("deletes trees", func() {
			clone := Must(s.CloneTree(ctx, root.ID, true))
			MustBeSuccessful(s.DeleteTree(ctx, clone.ID))
			Expect(count("nodes")).To(Equal(4))
			Expect(count("contents")).To(Equal(4))
		})
	})

	It("resolves unknown content as placeholder", func() {
		a := Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewMarkdown("a")))

		reg := content.NewRegistry()
		content.MustRegisterType[widgets.Layout](reg, widgets.TYPE_LAYOUT)
		limited := store.New(db, reg)

		c := Must(limited.GetContent(ctx, a.ID))
		Expect(content.IsUnknown(c)).To(BeTrue())
		Expect(c.GetType()).To(Equal(widgets.TYPE_MARKDOWN))
		Expect(Must(limited.Snapshot(ctx, root.ID)).Entries).To(HaveLen(2))
	})

	It("fingerprints content", func() {
		Expect(store.Fingerprint([]byte("a"))).To(HaveLen(16))
		Expect(store.Fingerprint([]byte("a"))).To(Equal(store.Fingerprint([]byte("a"))))
		Expect(store.Fingerprint([]byte("a"))).NotTo(Equal(store.Fingerprint([]byte("b"))))
	})
})

// copiedEntries aligns the node ids of a cloned snapshot with the
// original to compare the remaining attributes.
func copiedEntries(s, orig *store.Snapshot) []store.Entry {
	r := append([]store.Entry(nil), s.Entries...)
	for i := range r {
		if i < len(orig.Entries) {
			r[i].NodeID = orig.Entries[i].NodeID
		}
	}
	return r
}
