package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/tree"
	"github.com/mandelsoft/widgy/pkg/utils"
)

// Entry describes a single node of a snapshot by its position,
// independent of node ids and path steps.
type Entry struct {
	// Position is the dot separated list of the one based sibling
	// indices from the root. The root has the empty position.
	Position string `json:"position"`
	Type     string `json:"type"`
	// Hash is the fingerprint of the serialized content.
	Hash string `json:"hash"`

	Description string `json:"-"`
	NodeID      string `json:"-"`
}

// Snapshot is the ordered structural description of a tree.
// Two trees are structurally identical if their snapshots are equal.
type Snapshot struct {
	Root    string  `json:"-"`
	Entries []Entry `json:"entries"`
}

// Hash provides a hash over the structure and content of a tree.
func (s *Snapshot) Hash() (string, error) {
	return utils.HashData(s.Entries)
}

// Index returns the entries by position.
func (s *Snapshot) Index() map[string]*Entry {
	m := map[string]*Entry{}
	for i := range s.Entries {
		m[s.Entries[i].Position] = &s.Entries[i]
	}
	return m
}

func (s *Store) Snapshot(ctx context.Context, root string) (*Snapshot, error) {
	return s.SnapshotTx(ctx, s.db, root)
}

// SnapshotTx describes the tree below the given node.
func (s *Store) SnapshotTx(ctx context.Context, q database.Querier, root string) (*Snapshot, error) {
	n, err := getNodeTx(ctx, q, root)
	if err != nil {
		return nil, err
	}
	t, err := loadTreeTx(ctx, q, n.Path)
	if err != nil {
		return nil, err
	}
	rows, err := contentRowsTx(ctx, q, n.Path)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Root: root}
	var add func(idx tree.Index, pos string) error
	add = func(idx tree.Index, pos string) error {
		node := t.Get(idx)
		r := rows[node.Content.ID]
		if r == nil {
			return fmt.Errorf("%w: content %s of node %s missing", tree.ErrCorrupted, node.Content, node.Path)
		}
		snap.Entries = append(snap.Entries, Entry{
			Position:    pos,
			Type:        node.Content.Type,
			Hash:        r.Hash,
			Description: utils.DescribeObject(s.registry.Resolve(r.Type, r.Data)),
			NodeID:      node.ID,
		})
		for i, c := range t.Children(idx) {
			p := strconv.Itoa(i + 1)
			if pos != "" {
				p = pos + "." + p
			}
			if err := add(c, p); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(t.Lookup(root), ""); err != nil {
		return nil, err
	}
	return snap, nil
}

func contentRowsTx(ctx context.Context, q database.Querier, path string) (map[string]*ContentRow, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT c.id, c.type, c.data, c.hash, c.node_id FROM contents c JOIN nodes n ON n.id = c.node_id WHERE n.path LIKE ?",
		path+"%")
	if err != nil {
		return nil, fmt.Errorf("load contents of %s: %w", path, err)
	}
	defer rows.Close()

	m := map[string]*ContentRow{}
	for rows.Next() {
		var r ContentRow
		var data string
		if err := rows.Scan(&r.ID, &r.Type, &data, &r.Hash, &r.NodeID); err != nil {
			return nil, err
		}
		r.Data = []byte(data)
		m[r.ID] = &r
	}
	return m, rows.Err()
}
