package tree

import (
	"fmt"
)

// Index addresses a node in the arena of a Tree.
type Index int

// None is the index used for absent nodes, for example
// the parent of a root.
const None Index = -1

// ContentRef is the polymorphic reference of a node to
// its content object.
type ContentRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (r ContentRef) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}

// Node is the arena representation of a persisted tree node.
type Node struct {
	ID       string
	Path     string
	Depth    int
	NumChild int
	Frozen   bool
	Content  ContentRef

	// Source is the id of the node a cloned node has been created from.
	Source string

	index    Index
	parent   Index
	children []Index
	deleted  bool
	orig     *state
}

type state struct {
	path     string
	depth    int
	numchild int
	frozen   bool
	content  ContentRef
}

func (n *Node) state() *state {
	return &state{
		path:     n.Path,
		depth:    n.Depth,
		numchild: n.NumChild,
		frozen:   n.Frozen,
		content:  n.Content,
	}
}

func (n *Node) Index() Index {
	return n.index
}

func (n *Node) Parent() Index {
	return n.parent
}

func (n *Node) IsRoot() bool {
	return n.parent == None
}

// IsNew reports whether the node has been created after loading the tree.
func (n *Node) IsNew() bool {
	return n.orig == nil
}

// IsModified reports whether a loaded node differs from its persisted state.
func (n *Node) IsModified() bool {
	return n.orig != nil && *n.orig != *n.state()
}

// OriginalPath is the path of a loaded node at load time.
func (n *Node) OriginalPath() string {
	if n.orig == nil {
		return ""
	}
	return n.orig.path
}

func (n *Node) String() string {
	return fmt.Sprintf("%s[%s]", n.Path, n.Content)
}
