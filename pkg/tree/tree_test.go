package tree_test

import (
	. "github.com/mandelsoft/widgy/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/widgy/pkg/tree"
)

func ref(id string) tree.ContentRef {
	return tree.ContentRef{Type: "markdown", ID: id}
}

func paths(t *tree.Tree, list ...tree.Index) []string {
	var r []string
	for _, i := range list {
		r = append(r, t.Get(i).Path)
	}
	return r
}

func ids(list []*tree.Node) []string {
	r := []string{}
	for _, n := range list {
		r = append(r, n.ID)
	}
	return r
}

var _ = Describe("tree", func() {
	var t *tree.Tree
	var root, a, b, c tree.Index

	BeforeEach(func() {
		t = tree.New()
		root = Must(t.AddRoot(ref("root")))
		a = Must(t.AddChild(root, tree.LastChild, ref("a")))
		b = Must(t.AddChild(root, tree.LastChild, ref("b")))
		c = Must(t.AddChild(root, tree.LastChild, ref("c")))
	})

	AfterEach(func() {
		MustBeSuccessful(t.Validate())
	})

	It("parses positions", func() {
		Expect(Must(tree.ParsePosition("last-child"))).To(Equal(tree.LastChild))
		Expect(Must(tree.ParsePosition("Left"))).To(Equal(tree.Left))
		_, err := tree.ParsePosition("above")
		Expect(err).To(MatchError(tree.ErrInvalidPosition))
	})

	Context("insertion", func() {
		It("appends children", func() {
			Expect(paths(t, root, a, b, c)).To(Equal([]string{"0001", "00010001", "00010002", "00010003"}))
			Expect(t.Get(root).NumChild).To(Equal(3))
			Expect(t.Get(root).Depth).To(Equal(0))
			Expect(t.Get(c).Depth).To(Equal(1))
			Expect(t.Children(root)).To(Equal([]tree.Index{a, b, c}))
		})

		It("adds roots", func() {
			r := Must(t.AddRoot(ref("other")))
			Expect(t.Get(r).Path).To(Equal("0002"))
			Expect(t.Roots()).To(Equal([]tree.Index{root, r}))
		})

		It("shifts following siblings", func() {
			x := Must(t.AddChild(root, tree.FirstChild, ref("x")))
			Expect(paths(t, x, a, b, c)).To(Equal([]string{"00010001", "00010002", "00010003", "00010004"}))
			Expect(t.Children(root)).To(Equal([]tree.Index{x, a, b, c}))
		})

		It("lists ancestors starting with the root", func() {
			d := Must(t.AddChild(b, tree.LastChild, ref("d")))
			e := Must(t.AddChild(d, tree.FirstChild, ref("e")))
			Expect(t.Ancestors(e)).To(Equal([]tree.Index{root, b, d}))
			Expect(t.Ancestors(a)).To(Equal([]tree.Index{root}))
			Expect(t.Ancestors(root)).To(BeEmpty())
		})

		It("shifts descendants with their ancestor", func() {
			d := Must(t.AddChild(b, tree.LastChild, ref("d")))
			Expect(t.Get(d).Path).To(Equal("000100020001"))
			Must(t.AddSibling(a, tree.Right, ref("x")))
			Expect(paths(t, b, d)).To(Equal([]string{"00010003", "000100030001"}))
			Expect(t.Find("000100030001")).To(Equal(d))
			Expect(t.Find("000100020001")).To(Equal(tree.None))
		})

		It("uses gaps", func() {
			MustBeSuccessful(t.Delete(b))
			x := Must(t.AddSibling(a, tree.Right, ref("x")))
			Expect(paths(t, a, x, c)).To(Equal([]string{"00010001", "00010002", "00010003"}))
		})

		It("handles sibling positions", func() {
			f := Must(t.AddSibling(b, tree.FirstSibling, ref("f")))
			l := Must(t.AddSibling(b, tree.LastSibling, ref("l")))
			x := Must(t.AddSibling(b, tree.Left, ref("x")))
			Expect(t.Children(root)).To(Equal([]tree.Index{f, a, x, b, c, l}))
		})

		It("rejects siblings of roots", func() {
			_, err := t.AddSibling(root, tree.Right, ref("x"))
			Expect(err).To(MatchError(tree.ErrInvalidPosition))
		})

		It("rejects wrong position kinds", func() {
			_, err := t.AddChild(root, tree.Left, ref("x"))
			Expect(err).To(MatchError(tree.ErrInvalidPosition))
			_, err = t.AddSibling(a, tree.FirstChild, ref("x"))
			Expect(err).To(MatchError(tree.ErrInvalidPosition))
		})

		It("detects overflow", func() {
			t = Must(tree.Load([]tree.Node{
				{ID: "r", Path: "0001", NumChild: 1},
				{ID: "z", Path: "0001ZZZZ", Depth: 1},
			}))
			r := t.Lookup("r")
			_, err := t.AddChild(r, tree.LastChild, ref("x"))
			Expect(err).To(MatchError(tree.ErrPathOverflow))
			x := Must(t.AddChild(r, tree.FirstChild, ref("x")))
			Expect(t.Get(x).Path).To(Equal("00010001"))
		})
	})

	Context("moves", func() {
		var d tree.Index

		BeforeEach(func() {
			d = Must(t.AddChild(a, tree.LastChild, ref("d")))
		})

		It("moves subtrees", func() {
			MustBeSuccessful(t.Move(a, c, tree.Right))
			Expect(paths(t, b, c, a, d)).To(Equal([]string{"00010002", "00010003", "00010004", "000100040001"}))
			Expect(t.Get(d).Depth).To(Equal(2))
			Expect(t.Children(root)).To(Equal([]tree.Index{b, c, a}))
		})

		It("moves below another node", func() {
			MustBeSuccessful(t.Move(a, c, tree.FirstChild))
			Expect(paths(t, a, d)).To(Equal([]string{"000100030001", "0001000300010001"}))
			Expect(t.Get(d).Depth).To(Equal(3))
			Expect(t.Get(root).NumChild).To(Equal(2))
			Expect(t.Get(c).NumChild).To(Equal(1))
			Expect(t.Parent(a)).To(Equal(c))
			Expect(t.Ancestors(d)).To(Equal([]tree.Index{root, c, a}))
		})

		It("moves up", func() {
			MustBeSuccessful(t.Move(d, a, tree.Left))
			Expect(paths(t, d, a, b, c)).To(Equal([]string{"00010001", "00010002", "00010003", "00010004"}))
			Expect(t.Get(a).NumChild).To(Equal(0))
		})

		It("rejects moves into the own subtree", func() {
			Expect(t.Move(a, d, tree.LastChild)).To(MatchError(tree.ErrInvalidMove))
			Expect(t.Move(a, a, tree.LastChild)).To(MatchError(tree.ErrInvalidMove))
			Expect(t.Get(d).Path).To(Equal("000100010001"))
		})

		It("rejects moving roots", func() {
			Expect(t.Move(root, c, tree.LastChild)).To(MatchError(tree.ErrInvalidMove))
		})

		It("rejects sibling positions at roots", func() {
			Expect(t.Move(a, root, tree.Right)).To(MatchError(tree.ErrInvalidPosition))
			Expect(t.Children(root)).To(Equal([]tree.Index{a, b, c}))
		})
	})

	It("deletes subtrees", func() {
		d := Must(t.AddChild(b, tree.LastChild, ref("d")))
		MustBeSuccessful(t.Delete(b))
		Expect(t.Get(b)).To(BeNil())
		Expect(t.Get(d)).To(BeNil())
		Expect(t.Len()).To(Equal(3))
		Expect(paths(t, a, c)).To(Equal([]string{"00010001", "00010003"}))
	})

	It("clones subtrees", func() {
		Must(t.AddChild(b, tree.LastChild, ref("d")))
		for i, idx := range t.Subtree(root) {
			MustBeSuccessful(t.SetID(idx, string(rune('A'+i))))
		}
		clone := Must(t.Clone(root, "0007"))
		MustBeSuccessful(clone.Validate())

		var orig, cloned []string
		t.Walk(func(n *tree.Node) error {
			orig = append(orig, tree.Relative(n.Path, "0001")+n.Content.ID)
			return nil
		})
		var sources []string
		clone.Walk(func(n *tree.Node) error {
			cloned = append(cloned, tree.Relative(n.Path, "0007")+n.Content.ID)
			sources = append(sources, n.Source)
			Expect(n.ID).To(BeEmpty())
			return nil
		})
		Expect(cloned).To(Equal(orig))
		Expect(sources).To(Equal([]string{"A", "B", "C", "D", "E"}))
	})

	Context("persistence", func() {
		var nodes []tree.Node

		BeforeEach(func() {
			nodes = []tree.Node{
				{ID: "3", Path: "00010002", Depth: 1, Content: ref("b")},
				{ID: "1", Path: "0001", Depth: 0, NumChild: 2, Content: ref("root")},
				{ID: "2", Path: "00010001", Depth: 1, Content: ref("a")},
			}
		})

		It("loads nodes", func() {
			t = Must(tree.Load(nodes))
			Expect(t.Len()).To(Equal(3))
			Expect(t.Get(t.Lookup("1")).NumChild).To(Equal(2))
			Expect(t.Children(t.Lookup("1"))).To(Equal([]tree.Index{t.Lookup("2"), t.Lookup("3")}))
			Expect(t.Changes().IsEmpty()).To(BeTrue())
		})

		It("reports changes", func() {
			t = Must(tree.Load(nodes))
			x := Must(t.AddChild(t.Lookup("1"), tree.FirstChild, ref("x")))
			MustBeSuccessful(t.Delete(t.Lookup("3")))
			cs := t.Changes()
			Expect(cs.Created).To(HaveLen(1))
			Expect(cs.Created[0].Index()).To(Equal(x))
			Expect(ids(cs.Updated)).To(Equal([]string{"2"}))
			Expect(ids(cs.Deleted)).To(Equal([]string{"3"}))
			Expect(cs.Updated[0].OriginalPath()).To(Equal("00010001"))
			Expect(cs.Updated[0].Path).To(Equal("00010002"))
		})

		It("repairs stale derived values", func() {
			nodes[1].NumChild = 5
			t = Must(tree.Load(nodes))
			Expect(t.Get(t.Lookup("1")).NumChild).To(Equal(2))
			Expect(ids(t.Changes().Updated)).To(Equal([]string{"1"}))
		})

		It("rejects orphans", func() {
			_, err := tree.Load(nodes[:2])
			Expect(err).NotTo(HaveOccurred())
			_, err = tree.Load([]tree.Node{nodes[0]})
			Expect(err).To(MatchError(tree.ErrCorrupted))
		})

		It("rejects duplicate paths", func() {
			_, err := tree.Load(append(nodes, tree.Node{ID: "4", Path: "0001"}))
			Expect(err).To(MatchError(tree.ErrCorrupted))
		})
	})
})
