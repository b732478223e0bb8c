package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/tree"
)

var (
	// ErrFrozen is returned for modifications of nodes belonging to a commit.
	ErrFrozen = errors.New("node is frozen")
	// ErrProtected is returned for deleting tree roots still owned by
	// a version tracker or commit.
	ErrProtected = errors.New("node is protected")
)

// Store provides the node tree operations on a relational database.
// Every exported operation runs in its own transaction, the ...Tx
// variants can be composed into larger transactions.
type Store struct {
	db       *database.DB
	registry content.Registry
}

func New(db *database.DB, reg content.Registry) *Store {
	return &Store{db: db, registry: reg}
}

func (s *Store) Database() *database.DB {
	return s.db
}

func (s *Store) Registry() content.Registry {
	return s.registry
}

func transactionValue[T any](ctx context.Context, db *database.DB, f func(tx *database.Tx) (T, error)) (T, error) {
	var result T
	err := db.Transaction(ctx, func(tx *database.Tx) error {
		var err error
		result, err = f(tx)
		return err
	})
	return result, err
}

////////////////////////////////////////////////////////////////////////////////

func (s *Store) CreateRoot(ctx context.Context, c content.Content) (*tree.Node, error) {
	return transactionValue(ctx, s.db, func(tx *database.Tx) (*tree.Node, error) {
		return s.CreateRootTx(ctx, tx, c)
	})
}

// CreateRootTx creates a new top level tree consisting of a single node.
func (s *Store) CreateRootTx(ctx context.Context, q database.Querier, c content.Content) (*tree.Node, error) {
	ref, data, err := s.prepareContent(c)
	if err != nil {
		return nil, err
	}
	path, err := nextRootPathTx(ctx, q)
	if err != nil {
		return nil, err
	}
	t := tree.New()
	idx, err := t.AddRootAt(path, ref)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, q, t, idx, data)
}

func (s *Store) AddChild(ctx context.Context, parent string, pos tree.Position, c content.Content) (*tree.Node, error) {
	return transactionValue(ctx, s.db, func(tx *database.Tx) (*tree.Node, error) {
		return s.AddChildTx(ctx, tx, parent, pos, c)
	})
}

// AddChildTx adds a new node as first or last child of the given parent node.
func (s *Store) AddChildTx(ctx context.Context, q database.Querier, parent string, pos tree.Position, c content.Content) (*tree.Node, error) {
	if !pos.IsChild() {
		return nil, fmt.Errorf("%w: %s is no child position", tree.ErrInvalidPosition, pos)
	}
	return s.add(ctx, q, parent, pos, c)
}

func (s *Store) AddSibling(ctx context.Context, sibling string, pos tree.Position, c content.Content) (*tree.Node, error) {
	return transactionValue(ctx, s.db, func(tx *database.Tx) (*tree.Node, error) {
		return s.AddSiblingTx(ctx, tx, sibling, pos, c)
	})
}

// AddSiblingTx adds a new node relative to the given sibling node.
func (s *Store) AddSiblingTx(ctx context.Context, q database.Querier, sibling string, pos tree.Position, c content.Content) (*tree.Node, error) {
	if pos.IsChild() {
		return nil, fmt.Errorf("%w: %s is no sibling position", tree.ErrInvalidPosition, pos)
	}
	return s.add(ctx, q, sibling, pos, c)
}

func (s *Store) add(ctx context.Context, q database.Querier, target string, pos tree.Position, c content.Content) (*tree.Node, error) {
	ref, data, err := s.prepareContent(c)
	if err != nil {
		return nil, err
	}
	t, tidx, err := s.loadFor(ctx, q, target)
	if err != nil {
		return nil, err
	}
	parent := tidx
	if !pos.IsChild() {
		parent = t.Parent(tidx)
		if parent == tree.None {
			return nil, fmt.Errorf("%w: no siblings for root %q", tree.ErrInvalidPosition, target)
		}
	}
	if err := s.checkChild(ctx, q, t.Get(parent), c); err != nil {
		return nil, err
	}

	var idx tree.Index
	if pos.IsChild() {
		idx, err = t.AddChild(parent, pos, ref)
	} else {
		idx, err = t.AddSibling(tidx, pos, ref)
	}
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, q, t, idx, data)
}

// finish saves a tree with one new node and writes the content of the new node.
func (s *Store) finish(ctx context.Context, q database.Querier, t *tree.Tree, idx tree.Index, data []byte) (*tree.Node, error) {
	if err := saveTreeTx(ctx, q, t); err != nil {
		return nil, err
	}
	n := t.Get(idx)
	if err := insertContentTx(ctx, q, n.Content, data, n.ID); err != nil {
		return nil, err
	}
	log.Debug("created node {{path}} ({{content}})", "path", n.Path, "content", n.Content.Type)
	return copyNode(n), nil
}

// loadFor loads the tree containing the given mutable node.
func (s *Store) loadFor(ctx context.Context, q database.Querier, id string) (*tree.Tree, tree.Index, error) {
	n, err := getNodeTx(ctx, q, id)
	if err != nil {
		return nil, tree.None, err
	}
	if n.Frozen {
		return nil, tree.None, fmt.Errorf("%w: %s", ErrFrozen, n.Path)
	}
	t, err := loadTreeTx(ctx, q, n.Path)
	if err != nil {
		return nil, tree.None, err
	}
	return t, t.Lookup(id), nil
}

func (s *Store) checkChild(ctx context.Context, q database.Querier, parent *tree.Node, child content.Content) error {
	pc, err := s.getContentTx(ctx, q, parent.Content)
	if err != nil {
		return err
	}
	return s.registry.CheckChild(pc, child)
}

func (s *Store) Move(ctx context.Context, node, target string, pos tree.Position) error {
	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		return s.MoveTx(ctx, tx, node, target, pos)
	})
}

// MoveTx moves a node with its subtree to a position relative to
// target. Nodes cannot leave their top level tree.
func (s *Store) MoveTx(ctx context.Context, q database.Querier, node, target string, pos tree.Position) error {
	t, idx, err := s.loadFor(ctx, q, node)
	if err != nil {
		return err
	}
	tidx := t.Lookup(target)
	if tidx == tree.None {
		if _, err := getNodeTx(ctx, q, target); err != nil {
			return err
		}
		return fmt.Errorf("%w: target %q belongs to another tree", tree.ErrInvalidMove, target)
	}
	old := t.Parent(idx)
	if err := t.Move(idx, tidx, pos); err != nil {
		return err
	}
	// structure first, the arena is discarded on any error
	if parent := t.Parent(idx); parent != old {
		c, err := s.getContentTx(ctx, q, t.Get(idx).Content)
		if err != nil {
			return err
		}
		if err := s.checkChild(ctx, q, t.Get(parent), c); err != nil {
			return err
		}
	}
	log.Debug("moving node {{node}} to {{path}}", "node", node, "path", t.Get(idx).Path)
	return saveTreeTx(ctx, q, t)
}

func (s *Store) Delete(ctx context.Context, node string) error {
	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		return s.DeleteTx(ctx, tx, node)
	})
}

// DeleteTx deletes a node with its subtree. Deleting a root deletes
// the complete tree, if it is not owned by a tracker or commit.
func (s *Store) DeleteTx(ctx context.Context, q database.Querier, node string) error {
	n, err := getNodeTx(ctx, q, node)
	if err != nil {
		return err
	}
	if n.Depth == 0 {
		owned, err := isOwnedTx(ctx, q, n.ID)
		if err != nil {
			return err
		}
		if owned {
			return fmt.Errorf("%w: tree %s is used by version tracking", ErrProtected, n.Path)
		}
		return deleteTreeTx(ctx, q, n)
	}
	if n.Frozen {
		return fmt.Errorf("%w: %s", ErrFrozen, n.Path)
	}
	t, err := loadTreeTx(ctx, q, n.Path)
	if err != nil {
		return err
	}
	if err := t.Delete(t.Lookup(node)); err != nil {
		return err
	}
	log.Debug("deleting node {{path}}", "path", n.Path)
	return saveTreeTx(ctx, q, t)
}

func isOwnedTx(ctx context.Context, q database.Querier, root string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(1) FROM trackers WHERE working_copy = ?) + (SELECT COUNT(1) FROM commits WHERE root = ?)",
		root, root).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check tree ownership: %w", err)
	}
	return count > 0, nil
}

func (s *Store) SetContent(ctx context.Context, node string, c content.Content) error {
	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		return s.SetContentTx(ctx, tx, node, c)
	})
}

// SetContentTx replaces the content of a node. The new content
// must be compatible with the parent and the children of the node.
func (s *Store) SetContentTx(ctx context.Context, q database.Querier, node string, c content.Content) error {
	ref, data, err := s.prepareContent(c)
	if err != nil {
		return err
	}
	t, idx, err := s.loadFor(ctx, q, node)
	if err != nil {
		return err
	}
	n := t.Get(idx)
	if p := t.Parent(idx); p != tree.None {
		if err := s.checkChild(ctx, q, t.Get(p), c); err != nil {
			return err
		}
	}
	for _, ci := range t.Children(idx) {
		cc, err := s.getContentTx(ctx, q, t.Get(ci).Content)
		if err != nil {
			return err
		}
		if err := s.registry.CheckChild(c, cc); err != nil {
			return err
		}
	}

	if n.Content.Type == ref.Type {
		_, err := q.ExecContext(ctx, "UPDATE contents SET data = ?, hash = ? WHERE id = ?", string(data), Fingerprint(data), n.Content.ID)
		if err != nil {
			return fmt.Errorf("update content %s: %w", n.Content, err)
		}
		return nil
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM contents WHERE id = ?", n.Content.ID); err != nil {
		return fmt.Errorf("delete content %s: %w", n.Content, err)
	}
	n.Content = ref
	if err := saveTreeTx(ctx, q, t); err != nil {
		return err
	}
	return insertContentTx(ctx, q, ref, data, n.ID)
}

////////////////////////////////////////////////////////////////////////////////
// queries

func (s *Store) GetNode(ctx context.Context, id string) (*tree.Node, error) {
	return getNodeTx(ctx, s.db, id)
}

func (s *Store) GetNodeTx(ctx context.Context, q database.Querier, id string) (*tree.Node, error) {
	return getNodeTx(ctx, q, id)
}

// FindNode looks up a node by its path.
func (s *Store) FindNode(ctx context.Context, path string) (*tree.Node, error) {
	n, err := scanNode(s.db.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE path = ?", path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.NotExist("path", path)
		}
		return nil, err
	}
	return n, nil
}

// Children returns the direct children of a node in sibling order.
func (s *Store) Children(ctx context.Context, id string) ([]tree.Node, error) {
	n, err := getNodeTx(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return queryNodes(ctx, s.db, "SELECT "+nodeColumns+" FROM nodes WHERE path LIKE ? AND depth = ? ORDER BY path", n.Path+"%", n.Depth+1)
}

// Roots returns the top level nodes.
func (s *Store) Roots(ctx context.Context) ([]tree.Node, error) {
	return queryNodes(ctx, s.db, "SELECT "+nodeColumns+" FROM nodes WHERE depth = 0 ORDER BY path")
}

func (s *Store) LoadTree(ctx context.Context, node string) (*tree.Tree, error) {
	return s.LoadTreeTx(ctx, s.db, node)
}

// LoadTreeTx loads the complete top level tree containing the given node.
func (s *Store) LoadTreeTx(ctx context.Context, q database.Querier, node string) (*tree.Tree, error) {
	n, err := getNodeTx(ctx, q, node)
	if err != nil {
		return nil, err
	}
	return loadTreeTx(ctx, q, n.Path)
}

func (s *Store) GetContent(ctx context.Context, node string) (content.Content, error) {
	return s.GetContentTx(ctx, s.db, node)
}

// GetContentTx dereferences the content of a node. Content of unknown
// types is returned as placeholder.
func (s *Store) GetContentTx(ctx context.Context, q database.Querier, node string) (content.Content, error) {
	n, err := getNodeTx(ctx, q, node)
	if err != nil {
		return nil, err
	}
	return s.getContentTx(ctx, q, n.Content)
}

// GetContentFor dereferences a content reference.
func (s *Store) GetContentFor(ctx context.Context, ref tree.ContentRef) (content.Content, error) {
	return s.getContentTx(ctx, s.db, ref)
}

func copyNode(n *tree.Node) *tree.Node {
	return &tree.Node{
		ID:       n.ID,
		Path:     n.Path,
		Depth:    n.Depth,
		NumChild: n.NumChild,
		Frozen:   n.Frozen,
		Content:  n.Content,
		Source:   n.Source,
	}
}
