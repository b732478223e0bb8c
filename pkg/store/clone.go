package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/tree"
)

func (s *Store) CloneTree(ctx context.Context, root string, frozen bool) (*tree.Node, error) {
	return transactionValue(ctx, s.db, func(tx *database.Tx) (*tree.Node, error) {
		return s.CloneTreeTx(ctx, tx, root, frozen)
	})
}

// CloneTreeTx creates a deep copy of a complete tree as new top
// level tree. Every cloned node gets its own copy of the content.
// With frozen the clone is read-only.
func (s *Store) CloneTreeTx(ctx context.Context, q database.Querier, root string, frozen bool) (*tree.Node, error) {
	n, err := getNodeTx(ctx, q, root)
	if err != nil {
		return nil, err
	}
	if n.Depth != 0 {
		return nil, fmt.Errorf("%w: %s is no tree root", tree.ErrInvalidPosition, n.Path)
	}
	src, err := loadTreeTx(ctx, q, n.Path)
	if err != nil {
		return nil, err
	}
	path, err := nextRootPathTx(ctx, q)
	if err != nil {
		return nil, err
	}
	clone, err := src.Clone(src.Lookup(root), path)
	if err != nil {
		return nil, err
	}

	sources := map[tree.Index]tree.ContentRef{}
	clone.Walk(func(c *tree.Node) error {
		sources[c.Index()] = c.Content
		c.Content.ID = uuid.New().String()
		c.Frozen = frozen
		return nil
	})
	if err := saveTreeTx(ctx, q, clone); err != nil {
		return nil, err
	}
	err = clone.Walk(func(c *tree.Node) error {
		return copyContentTx(ctx, q, sources[c.Index()], c.Content.ID, c.ID)
	})
	if err != nil {
		return nil, err
	}
	log.Debug("cloned tree {{source}} to {{path}} (frozen: {{frozen}})", "source", n.Path, "path", path, "frozen", frozen)
	return copyNode(clone.Get(clone.Roots()[0])), nil
}

func (s *Store) DeleteTree(ctx context.Context, root string) error {
	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		return s.DeleteTreeTx(ctx, tx, root)
	})
}

// DeleteTreeTx deletes a complete top level tree including frozen ones.
// Ownership by trackers or commits is not checked.
func (s *Store) DeleteTreeTx(ctx context.Context, q database.Querier, root string) error {
	n, err := getNodeTx(ctx, q, root)
	if err != nil {
		return err
	}
	if n.Depth != 0 {
		return fmt.Errorf("%w: %s is no tree root", tree.ErrInvalidPosition, n.Path)
	}
	return deleteTreeTx(ctx, q, n)
}

func deleteTreeTx(ctx context.Context, q database.Querier, root *tree.Node) error {
	pattern := root.Path + "%"
	if _, err := q.ExecContext(ctx, "DELETE FROM contents WHERE node_id IN (SELECT id FROM nodes WHERE path LIKE ?)", pattern); err != nil {
		return fmt.Errorf("delete contents of tree %s: %w", root.Path, err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM nodes WHERE path LIKE ?", pattern); err != nil {
		return fmt.Errorf("delete tree %s: %w", root.Path, err)
	}
	log.Debug("deleted tree {{path}}", "path", root.Path)
	return nil
}
