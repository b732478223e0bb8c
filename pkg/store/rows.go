package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/tree"
)

const nodeColumns = "id, path, depth, numchild, frozen, content_type, content_id, source_id"

func scanNode(s interface{ Scan(...interface{}) error }) (*tree.Node, error) {
	var n tree.Node
	var frozen int
	var source sql.NullString
	if err := s.Scan(&n.ID, &n.Path, &n.Depth, &n.NumChild, &frozen, &n.Content.Type, &n.Content.ID, &source); err != nil {
		return nil, err
	}
	n.Frozen = frozen != 0
	n.Source = source.String
	return &n, nil
}

func queryNodes(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]tree.Node, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []tree.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

func getNodeTx(ctx context.Context, q database.Querier, id string) (*tree.Node, error) {
	n, err := scanNode(q.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, database.NotExist("node", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get node %q: %w", id, err)
	}
	return n, nil
}

// loadTreeTx loads the complete top level tree containing the given path.
func loadTreeTx(ctx context.Context, q database.Querier, path string) (*tree.Tree, error) {
	nodes, err := queryNodes(ctx, q, "SELECT "+nodeColumns+" FROM nodes WHERE path LIKE ? ORDER BY path", tree.RootPath(path)+"%")
	if err != nil {
		return nil, fmt.Errorf("load tree %q: %w", tree.RootPath(path), err)
	}
	return tree.Load(nodes)
}

// nextRootPathTx allocates the path for a new top level tree.
func nextRootPathTx(ctx context.Context, q database.Querier) (string, error) {
	var last sql.NullString
	if err := q.QueryRowContext(ctx, "SELECT MAX(path) FROM nodes WHERE depth = 0").Scan(&last); err != nil {
		return "", fmt.Errorf("determine root path: %w", err)
	}
	return tree.EncodeStep(tree.LastStep(last.String) + 1)
}

// saveTreeTx writes the change set of a tree. New nodes get
// their ids assigned. Path changes are done in two phases so that
// the unique path index is never violated by intermediate states.
func saveTreeTx(ctx context.Context, q database.Querier, t *tree.Tree) error {
	cs := t.Changes()
	if cs.IsEmpty() {
		return nil
	}

	for _, n := range cs.Deleted {
		if _, err := q.ExecContext(ctx, "DELETE FROM contents WHERE node_id = ?", n.ID); err != nil {
			return fmt.Errorf("delete content of node %q: %w", n.ID, err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", n.ID); err != nil {
			return fmt.Errorf("delete node %q: %w", n.ID, err)
		}
	}

	for _, n := range cs.Updated {
		if n.Path != n.OriginalPath() {
			if _, err := q.ExecContext(ctx, "UPDATE nodes SET path = ? WHERE id = ?", "~"+n.ID, n.ID); err != nil {
				return pathError(n, err)
			}
		}
	}
	for _, n := range cs.Updated {
		if _, err := q.ExecContext(ctx,
			"UPDATE nodes SET path = ?, depth = ?, numchild = ?, frozen = ?, content_type = ?, content_id = ? WHERE id = ?",
			n.Path, n.Depth, n.NumChild, database.BoolInt(n.Frozen), n.Content.Type, n.Content.ID, n.ID,
		); err != nil {
			return pathError(n, err)
		}
	}

	for _, n := range cs.Created {
		if err := t.SetID(n.Index(), uuid.New().String()); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			"INSERT INTO nodes ("+nodeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			n.ID, n.Path, n.Depth, n.NumChild, database.BoolInt(n.Frozen), n.Content.Type, n.Content.ID, database.NullString(n.Source),
		); err != nil {
			return pathError(n, err)
		}
	}
	log.Trace("saved tree changes: {{created}} created, {{updated}} updated, {{deleted}} deleted",
		"created", len(cs.Created), "updated", len(cs.Updated), "deleted", len(cs.Deleted))
	return nil
}

func pathError(n *tree.Node, err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: node path %q: %w", database.ErrPathCollision, n.Path, err)
	}
	return fmt.Errorf("write node %q: %w", n.Path, err)
}
