package tree

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Position describes the location of a new or moved node
// relative to a target node.
type Position int

const (
	// FirstChild and LastChild place the node below the target.
	FirstChild Position = iota
	LastChild
	// Left and Right place the node directly before or after the target.
	Left
	Right
	// FirstSibling and LastSibling place the node at the
	// beginning or end of the target's sibling list.
	FirstSibling
	LastSibling
)

var positionNames = map[Position]string{
	FirstChild:   "first-child",
	LastChild:    "last-child",
	Left:         "left",
	Right:        "right",
	FirstSibling: "first-sibling",
	LastSibling:  "last-sibling",
}

func (p Position) String() string {
	if n, ok := positionNames[p]; ok {
		return n
	}
	return fmt.Sprintf("position(%d)", int(p))
}

func (p Position) IsChild() bool {
	return p == FirstChild || p == LastChild
}

// ParsePosition parses the textual representation of a position.
func ParsePosition(s string) (Position, error) {
	for p, n := range positionNames {
		if strings.EqualFold(n, s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidPosition, s)
}

// Tree is an arena of nodes forming a forest addressed by
// materialized paths. Node indices are stable for the lifetime
// of a Tree, deleted nodes keep their slot.
// Paths are maintained incrementally: only nodes changing their
// position get a new path.
type Tree struct {
	nodes   []*Node
	roots   []Index
	byPath  map[string]Index
	byID    map[string]Index
	deleted []*Node
}

func New() *Tree {
	return &Tree{
		byPath: map[string]Index{},
		byID:   map[string]Index{},
	}
}

// Load builds a tree from persisted nodes. The nodes may be given in
// any order, but every non-root node requires its parent. Depth and
// child counts are recomputed; deviations from the given
// values are reported as updates by Changes.
func Load(nodes []Node) (*Tree, error) {
	t := New()

	list := slices.Clone(nodes)
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })

	for i := range list {
		n := list[i]
		if !ValidPath(n.Path) {
			return nil, fmt.Errorf("%w: invalid path %q", ErrCorrupted, n.Path)
		}
		if _, ok := t.byPath[n.Path]; ok {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrCorrupted, n.Path)
		}
		parent := None
		if pp := ParentPath(n.Path); pp != "" {
			p, ok := t.byPath[pp]
			if !ok {
				return nil, fmt.Errorf("%w: orphan node %q", ErrCorrupted, n.Path)
			}
			parent = p
		}

		node := &Node{
			ID:       n.ID,
			Path:     n.Path,
			Depth:    n.Depth,
			NumChild: n.NumChild,
			Frozen:   n.Frozen,
			Content:  n.Content,
			Source:   n.Source,
			parent:   parent,
		}
		node.orig = node.state()
		node.Depth = Depth(n.Path)
		node.NumChild = 0

		idx := t.add(node)
		if parent == None {
			t.roots = append(t.roots, idx)
		} else {
			p := t.nodes[parent]
			p.children = append(p.children, idx)
			p.NumChild++
		}
	}
	return t, nil
}

func (t *Tree) add(n *Node) Index {
	n.index = Index(len(t.nodes))
	t.nodes = append(t.nodes, n)
	t.byPath[n.Path] = n.index
	if n.ID != "" {
		t.byID[n.ID] = n.index
	}
	return n.index
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	return len(t.byPath)
}

// Get returns the live node for the given index or nil.
func (t *Tree) Get(idx Index) *Node {
	if idx < 0 || int(idx) >= len(t.nodes) {
		return nil
	}
	n := t.nodes[idx]
	if n.deleted {
		return nil
	}
	return n
}

func (t *Tree) get(idx Index) (*Node, error) {
	n := t.Get(idx)
	if n == nil {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, idx)
	}
	return n, nil
}

// Find looks up a node by path.
func (t *Tree) Find(path string) Index {
	if idx, ok := t.byPath[path]; ok {
		return idx
	}
	return None
}

// Lookup looks up a node by id.
func (t *Tree) Lookup(id string) Index {
	if idx, ok := t.byID[id]; ok && !t.nodes[idx].deleted {
		return idx
	}
	return None
}

// SetID assigns the persistence id of a node.
func (t *Tree) SetID(idx Index, id string) error {
	n, err := t.get(idx)
	if err != nil {
		return err
	}
	if o, ok := t.byID[id]; ok && o != idx && !t.nodes[o].deleted {
		return fmt.Errorf("%w: duplicate id %q", ErrCorrupted, id)
	}
	if n.ID != "" {
		delete(t.byID, n.ID)
	}
	n.ID = id
	t.byID[id] = idx
	return nil
}

func (t *Tree) Roots() []Index {
	return slices.Clone(t.roots)
}

func (t *Tree) Children(idx Index) []Index {
	n := t.Get(idx)
	if n == nil {
		return nil
	}
	return slices.Clone(n.children)
}

func (t *Tree) Parent(idx Index) Index {
	n := t.Get(idx)
	if n == nil {
		return None
	}
	return n.parent
}

// Ancestors returns the ancestors of a node, starting with its root.
func (t *Tree) Ancestors(idx Index) []Index {
	var r []Index
	for p := t.Parent(idx); p != None; p = t.Parent(p) {
		r = append(r, p)
	}
	slices.Reverse(r)
	return r
}

// Subtree returns the node and all its descendants in path order.
func (t *Tree) Subtree(idx Index) []Index {
	n := t.Get(idx)
	if n == nil {
		return nil
	}
	r := []Index{idx}
	for _, c := range n.children {
		r = append(r, t.Subtree(c)...)
	}
	return r
}

// Walk visits all live nodes in path order.
func (t *Tree) Walk(f func(n *Node) error) error {
	for _, r := range t.roots {
		for _, idx := range t.Subtree(r) {
			if err := f(t.nodes[idx]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tree) siblings(parent Index) []Index {
	if parent == None {
		return t.roots
	}
	return t.nodes[parent].children
}

func (t *Tree) setSiblings(parent Index, list []Index) {
	if parent == None {
		t.roots = list
	} else {
		p := t.nodes[parent]
		p.children = list
		p.NumChild = len(list)
	}
}

func (t *Tree) pathPrefix(parent Index) string {
	if parent == None {
		return ""
	}
	return t.nodes[parent].Path
}

////////////////////////////////////////////////////////////////////////////////
// modification

// AddRoot adds a new root behind all existing roots.
func (t *Tree) AddRoot(ref ContentRef) (Index, error) {
	step := 1
	if len(t.roots) > 0 {
		step = LastStep(t.nodes[t.roots[len(t.roots)-1]].Path) + 1
	}
	path, err := EncodeStep(step)
	if err != nil {
		return None, err
	}
	return t.AddRootAt(path, ref)
}

// AddRootAt adds a new root with an explicit path. It is used
// if the root paths are allocated by a persistence layer holding
// more roots than the tree.
func (t *Tree) AddRootAt(path string, ref ContentRef) (Index, error) {
	if !ValidPath(path) || Depth(path) != 0 {
		return None, fmt.Errorf("%w: invalid root path %q", ErrInvalidPosition, path)
	}
	if _, ok := t.byPath[path]; ok {
		return None, fmt.Errorf("%w: path %q already used", ErrInvalidPosition, path)
	}
	idx := t.add(&Node{Path: path, Depth: 0, Content: ref, parent: None})
	i, _ := slices.BinarySearchFunc(t.roots, path, func(e Index, p string) int {
		return strings.Compare(t.nodes[e].Path, p)
	})
	t.roots = slices.Insert(t.roots, i, idx)
	return idx, nil
}

// AddChild adds a new node below parent, either as FirstChild or LastChild.
func (t *Tree) AddChild(parent Index, pos Position, ref ContentRef) (Index, error) {
	if !pos.IsChild() {
		return None, fmt.Errorf("%w: %s is no child position", ErrInvalidPosition, pos)
	}
	return t.insertNew(parent, pos, ref)
}

// AddSibling adds a new node relative to a non-root sibling.
func (t *Tree) AddSibling(sibling Index, pos Position, ref ContentRef) (Index, error) {
	if pos.IsChild() {
		return None, fmt.Errorf("%w: %s is no sibling position", ErrInvalidPosition, pos)
	}
	return t.insertNew(sibling, pos, ref)
}

func (t *Tree) insertNew(target Index, pos Position, ref ContentRef) (Index, error) {
	parent, at, err := t.resolve(target, pos)
	if err != nil {
		return None, err
	}
	path, err := t.makeRoom(parent, at)
	if err != nil {
		return None, err
	}
	idx := t.add(&Node{Path: path, Depth: Depth(path), Content: ref, parent: parent})
	t.setSiblings(parent, slices.Insert(slices.Clone(t.siblings(parent)), at, idx))
	return idx, nil
}

// resolve determines the parent and the insertion index in
// the parent's children list for a position relative to a target.
func (t *Tree) resolve(target Index, pos Position) (Index, int, error) {
	n, err := t.get(target)
	if err != nil {
		return None, 0, err
	}
	switch pos {
	case FirstChild:
		return target, 0, nil
	case LastChild:
		return target, len(n.children), nil
	}
	if n.parent == None {
		return None, 0, fmt.Errorf("%w: no siblings for root %q", ErrInvalidPosition, n.Path)
	}
	siblings := t.nodes[n.parent].children
	switch pos {
	case FirstSibling:
		return n.parent, 0, nil
	case LastSibling:
		return n.parent, len(siblings), nil
	case Left, Right:
		i := slices.Index(siblings, target)
		if pos == Right {
			i++
		}
		return n.parent, i, nil
	}
	return None, 0, fmt.Errorf("%w: %s", ErrInvalidPosition, pos)
}

// makeRoom determines the path for a node inserted into the
// children list of parent at index at. If there is no gap
// in the step sequence, the following siblings are shifted
// as far as required.
func (t *Tree) makeRoom(parent Index, at int) (string, error) {
	siblings := t.siblings(parent)
	prefix := t.pathPrefix(parent)

	prev := 0
	if at > 0 {
		prev = LastStep(t.nodes[siblings[at-1]].Path)
	}
	step := prev + 1

	// determine siblings to shift
	type shift struct {
		idx  Index
		step int
	}
	var shifts []shift
	last := step
	for j := at; j < len(siblings); j++ {
		s := LastStep(t.nodes[siblings[j]].Path)
		if s > last {
			break
		}
		last++
		shifts = append(shifts, shift{siblings[j], last})
	}
	if last > MaxStep {
		return "", fmt.Errorf("%w: too many children for %q", ErrPathOverflow, prefix)
	}

	// shift from the end to avoid transient collisions
	for i := len(shifts) - 1; i >= 0; i-- {
		s, _ := EncodeStep(shifts[i].step)
		t.repath(shifts[i].idx, prefix+s)
	}
	s, err := EncodeStep(step)
	if err != nil {
		return "", err
	}
	return prefix + s, nil
}

// repath assigns a new path to a node and rebases all its descendants.
func (t *Tree) repath(idx Index, path string) {
	n := t.nodes[idx]
	old := n.Path
	if old == path {
		return
	}
	sub := t.Subtree(idx)
	for _, i := range sub {
		if t.byPath[t.nodes[i].Path] == i {
			delete(t.byPath, t.nodes[i].Path)
		}
	}
	for _, i := range sub {
		c := t.nodes[i]
		c.Path = path + c.Path[len(old):]
		c.Depth = Depth(c.Path)
		t.byPath[c.Path] = i
	}
}

// Move moves a non-root node together with its subtree to
// a position relative to target.
func (t *Tree) Move(idx Index, target Index, pos Position) error {
	n, err := t.get(idx)
	if err != nil {
		return err
	}
	tn, err := t.get(target)
	if err != nil {
		return err
	}
	if n.parent == None {
		return fmt.Errorf("%w: root %q cannot be moved", ErrInvalidMove, n.Path)
	}
	if idx == target {
		return fmt.Errorf("%w: node cannot be moved relative to itself", ErrInvalidMove)
	}
	if IsDescendant(tn.Path, n.Path) {
		return fmt.Errorf("%w: %q cannot be moved into its own subtree", ErrInvalidMove, n.Path)
	}
	if !pos.IsChild() && tn.parent == None {
		return fmt.Errorf("%w: no siblings for root %q", ErrInvalidPosition, tn.Path)
	}

	// detach
	oldParent := n.parent
	t.setSiblings(oldParent, slices.DeleteFunc(slices.Clone(t.siblings(oldParent)), func(e Index) bool { return e == idx }))
	sub := t.Subtree(idx)
	for _, i := range sub {
		delete(t.byPath, t.nodes[i].Path)
	}

	parent, at, err := t.resolve(target, pos)
	if err == nil {
		var path string
		path, err = t.makeRoom(parent, at)
		if err == nil {
			old := n.Path
			for _, i := range sub {
				c := t.nodes[i]
				c.Path = path + c.Path[len(old):]
				c.Depth = Depth(c.Path)
				t.byPath[c.Path] = i
			}
			n.parent = parent
			t.setSiblings(parent, slices.Insert(slices.Clone(t.siblings(parent)), at, idx))
			return nil
		}
	}

	// restore on failure
	for _, i := range sub {
		t.byPath[t.nodes[i].Path] = i
	}
	siblings := t.siblings(oldParent)
	i, _ := slices.BinarySearchFunc(siblings, n.Path, func(e Index, p string) int {
		return strings.Compare(t.nodes[e].Path, p)
	})
	t.setSiblings(oldParent, slices.Insert(slices.Clone(siblings), i, idx))
	return err
}

// Delete removes a node and its subtree. Paths of the remaining
// siblings are kept, so the step sequence may contain gaps.
func (t *Tree) Delete(idx Index) error {
	n, err := t.get(idx)
	if err != nil {
		return err
	}
	t.setSiblings(n.parent, slices.DeleteFunc(slices.Clone(t.siblings(n.parent)), func(e Index) bool { return e == idx }))
	for _, i := range t.Subtree(idx) {
		c := t.nodes[i]
		delete(t.byPath, c.Path)
		if c.ID != "" {
			delete(t.byID, c.ID)
		}
		c.deleted = true
		if c.orig != nil {
			t.deleted = append(t.deleted, c)
		}
	}
	return nil
}

// Clone creates a deep copy of the subtree rooted at idx as new
// tree with the given root path. The steps below the root are kept.
// Cloned nodes have no id, they remember their origin as Source.
func (t *Tree) Clone(idx Index, rootPath string) (*Tree, error) {
	n, err := t.get(idx)
	if err != nil {
		return nil, err
	}
	c := New()
	r, err := c.AddRootAt(rootPath, n.Content)
	if err != nil {
		return nil, err
	}
	c.nodes[r].Source = n.ID
	c.nodes[r].Frozen = n.Frozen
	t.cloneChildren(c, n, r)
	return c, nil
}

func (t *Tree) cloneChildren(c *Tree, src *Node, dst Index) {
	d := c.nodes[dst]
	for _, ci := range src.children {
		child := t.nodes[ci]
		path := d.Path + child.Path[len(src.Path):]
		idx := c.add(&Node{
			Path:    path,
			Depth:   Depth(path),
			Frozen:  child.Frozen,
			Content: child.Content,
			Source:  child.ID,
			parent:  dst,
		})
		d.children = append(d.children, idx)
		d.NumChild++
		t.cloneChildren(c, child, idx)
	}
}

////////////////////////////////////////////////////////////////////////////////
// change tracking

// ChangeSet describes the modifications of a loaded tree.
// All lists are ordered by path.
type ChangeSet struct {
	Created []*Node
	Updated []*Node
	Deleted []*Node
}

func (c *ChangeSet) IsEmpty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// Changes reports the nodes to be created, updated and deleted to
// get the persisted state in sync with the tree.
func (t *Tree) Changes() *ChangeSet {
	cs := &ChangeSet{}
	t.Walk(func(n *Node) error {
		switch {
		case n.IsNew():
			cs.Created = append(cs.Created, n)
		case n.IsModified():
			cs.Updated = append(cs.Updated, n)
		}
		return nil
	})
	cs.Deleted = slices.Clone(t.deleted)
	sort.Slice(cs.Deleted, func(i, j int) bool { return cs.Deleted[i].orig.path < cs.Deleted[j].orig.path })
	return cs
}

// Validate checks the structural invariants of the tree.
func (t *Tree) Validate() error {
	count := 0
	err := t.Walk(func(n *Node) error {
		count++
		if !ValidPath(n.Path) {
			return fmt.Errorf("%w: invalid path %q", ErrCorrupted, n.Path)
		}
		if n.Depth != Depth(n.Path) {
			return fmt.Errorf("%w: depth %d of %q does not match path", ErrCorrupted, n.Depth, n.Path)
		}
		if t.byPath[n.Path] != n.index {
			return fmt.Errorf("%w: path index mismatch for %q", ErrCorrupted, n.Path)
		}
		if n.NumChild != len(n.children) {
			return fmt.Errorf("%w: numchild %d of %q, but found %d children", ErrCorrupted, n.NumChild, n.Path, len(n.children))
		}
		if n.parent != None && ParentPath(n.Path) != t.nodes[n.parent].Path {
			return fmt.Errorf("%w: %q is not located below its parent %q", ErrCorrupted, n.Path, t.nodes[n.parent].Path)
		}
		for i := 1; i < len(n.children); i++ {
			if t.nodes[n.children[i-1]].Path >= t.nodes[n.children[i]].Path {
				return fmt.Errorf("%w: children of %q not ordered", ErrCorrupted, n.Path)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if count != len(t.byPath) {
		return fmt.Errorf("%w: %d reachable nodes, but %d indexed paths", ErrCorrupted, count, len(t.byPath))
	}
	return nil
}
