package exchange_test

import (
	"context"

	. "github.com/mandelsoft/widgy/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-test/deep"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/exchange"
	"github.com/mandelsoft/widgy/pkg/store"
	"github.com/mandelsoft/widgy/pkg/tree"
	"github.com/mandelsoft/widgy/pkg/widgets"
)

var _ = Describe("exchange", func() {
	ctx := context.Background()

	var s *store.Store
	var fs vfs.FileSystem
	var root *tree.Node

	entries := func(id string) []store.Entry {
		snap := Must(s.Snapshot(ctx, id))
		var r []store.Entry
		for _, e := range snap.Entries {
			e.NodeID = ""
			r = append(r, e)
		}
		return r
	}

	BeforeEach(func() {
		s = store.New(TempDatabase(), widgets.NewRegistry())
		fs = memoryfs.New()
		root = Must(s.CreateRoot(ctx, widgets.NewLayout("home", "")))
		sec := Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewSection("intro")))
		Must(s.AddChild(ctx, sec.ID, tree.LastChild, widgets.NewMarkdown("hello")))
		Must(s.AddChild(ctx, sec.ID, tree.LastChild, widgets.NewTable([]string{"a", "b"}, []string{"1", "2"})))
		Must(s.AddChild(ctx, root.ID, tree.LastChild, widgets.NewCallout("note", "text", "info")))
	})

	It("exports a tree", func() {
		doc := Must(exchange.Export(ctx, s, root.ID))
		Expect(doc.Version).To(Equal(exchange.VERSION))
		Expect(doc.Root.Count()).To(Equal(5))
		Expect(len(doc.Root.Children)).To(Equal(2))
		Expect(len(doc.Root.Children[0].Children)).To(Equal(2))
		Expect(string(doc.Root.Children[0].Children[0].Content)).To(ContainSubstring(`"hello"`))
	})

	It("exports a subtree", func() {
		sec := Must(s.FindNode(ctx, "00010001"))
		doc := Must(exchange.Export(ctx, s, sec.ID))
		Expect(doc.Root.Count()).To(Equal(3))
	})

	It("imports an exported tree as new tree", func() {
		MustBeSuccessful(exchange.WriteFile(fs, "/export/home.yaml", Must(exchange.Export(ctx, s, root.ID))))
		doc := Must(exchange.ReadFile(fs, "/export/home.yaml"))

		imported := Must(exchange.Import(ctx, s, doc))
		Expect(imported.Path).To(Equal("0002"))
		Expect(deep.Equal(entries(imported.ID), entries(root.ID))).To(BeNil())
	})

	It("appends children to an existing node", func() {
		target := Must(s.CreateRoot(ctx, widgets.NewLayout("target", "")))
		MustBeSuccessful(exchange.ImportChildren(ctx, s, target.ID, Must(exchange.Export(ctx, s, root.ID))))
		Expect(Must(s.GetNode(ctx, target.ID)).NumChild).To(Equal(2))
		t := Must(s.LoadTree(ctx, target.ID))
		Expect(len(t.Subtree(t.Lookup(target.ID)))).To(Equal(5))
	})

	It("rejects unknown types", func() {
		doc := &exchange.Document{
			Version: exchange.VERSION,
			Root:    &exchange.Element{Content: []byte(`{"type":"video","url":"x"}`)},
		}
		_, err := exchange.Import(ctx, s, doc)
		Expect(err).To(MatchError(content.ErrUnknownType))
		Expect(len(Must(s.Roots(ctx)))).To(Equal(1))
	})

	It("rejects incompatible children atomically", func() {
		doc := &exchange.Document{
			Version: exchange.VERSION,
			Root: &exchange.Element{
				Content: []byte(`{"type":"layout","title":"x"}`),
				Children: []*exchange.Element{
					{Content: []byte(`{"type":"markdown","content":"a"}`)},
					{
						Content:  []byte(`{"type":"markdown","content":"b"}`),
						Children: []*exchange.Element{{Content: []byte(`{"type":"markdown","content":"c"}`)}},
					},
				},
			},
		}
		_, err := exchange.Import(ctx, s, doc)
		Expect(err).To(MatchError(content.ErrIncompatible))
		Expect(len(Must(s.Roots(ctx)))).To(Equal(1))
	})

	It("imports prepared documents", func() {
		fs := TestDataFileSystem("testdata", false)
		doc := Must(exchange.ReadFile(fs, "landing.yaml"))
		Expect(doc.Root.Count()).To(Equal(7))

		imported := Must(exchange.Import(ctx, s, doc))
		snap := Must(s.Snapshot(ctx, imported.ID))
		Expect(len(snap.Entries)).To(Equal(7))
		Expect(snap.Index()["2.2"].Description).To(Equal("Opening hours"))
		Expect(snap.Index()["1.1"].Description).To(Equal("Hello"))

		MustBeSuccessful(exchange.WriteFile(fs, "out/landing.yaml", Must(exchange.Export(ctx, s, imported.ID))))
		Expect(Must(exchange.ReadFile(fs, "out/landing.yaml")).Root.Count()).To(Equal(7))
		Expect(Must(vfs.Exists(fs, "out/landing.yaml"))).To(BeTrue())
	})

	It("rejects foreign documents", func() {
		MustBeSuccessful(vfs.WriteFile(fs, "doc.yaml", []byte("version: other/v1\nroot:\n  content:\n    type: layout\n"), 0o600))
		_, err := exchange.ReadFile(fs, "doc.yaml")
		Expect(err).To(MatchError(ContainSubstring("unsupported document version")))
	})
})
