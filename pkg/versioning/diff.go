package versioning

import (
	"context"
	"fmt"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/store"
)

// Change describes a position holding different content in two trees.
type Change struct {
	Position string      `json:"position"`
	From     store.Entry `json:"from"`
	To       store.Entry `json:"to"`
}

// Diff describes the differences between two trees by node positions.
type Diff struct {
	Added   []store.Entry `json:"added,omitempty"`
	Removed []store.Entry `json:"removed,omitempty"`
	Changed []Change      `json:"changed,omitempty"`
}

func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DiffSnapshots compares two snapshots.
func DiffSnapshots(from, to *store.Snapshot) *Diff {
	d := &Diff{}
	fi := from.Index()
	ti := to.Index()
	for _, e := range to.Entries {
		o := fi[e.Position]
		switch {
		case o == nil:
			d.Added = append(d.Added, e)
		case o.Type != e.Type || o.Hash != e.Hash:
			d.Changed = append(d.Changed, Change{Position: e.Position, From: *o, To: e})
		}
	}
	for _, e := range from.Entries {
		if ti[e.Position] == nil {
			d.Removed = append(d.Removed, e)
		}
	}
	return d
}

// Diff compares two trees of a tracker. The trees are given by commit
// ids, the empty id denotes the working copy.
func (m *Manager) Diff(ctx context.Context, tracker string, from, to string) (*Diff, error) {
	var d *Diff
	err := m.db.Transaction(ctx, func(tx *database.Tx) error {
		t, err := GetTrackerTx(ctx, tx, tracker)
		if err != nil {
			return err
		}
		fs, err := m.snapshot(ctx, tx, t, from)
		if err != nil {
			return err
		}
		ts, err := m.snapshot(ctx, tx, t, to)
		if err != nil {
			return err
		}
		d = DiffSnapshots(fs, ts)
		return nil
	})
	return d, err
}

func (m *Manager) snapshot(ctx context.Context, q database.Querier, t *Tracker, commit string) (*store.Snapshot, error) {
	if commit == "" {
		return m.store.SnapshotTx(ctx, q, t.WorkingCopy)
	}
	c, err := GetCommitTx(ctx, q, commit)
	if err != nil {
		return nil, err
	}
	if c.Tracker != t.ID {
		return nil, fmt.Errorf("commit %q of tracker %q: %w", commit, t.ID, database.ErrNotExist)
	}
	return m.store.SnapshotTx(ctx, q, c.Root)
}
