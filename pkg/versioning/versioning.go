package versioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/events"
	"github.com/mandelsoft/widgy/pkg/store"
	"github.com/mandelsoft/widgy/pkg/utils"
)

// Manager maintains version trackers and their commit chains.
type Manager struct {
	store  *store.Store
	db     *database.DB
	events events.HandlerRegistry
}

var _ events.EventLister = (*Manager)(nil)

func New(s *store.Store) *Manager {
	m := &Manager{
		store: s,
		db:    s.Database(),
	}
	m.events = events.NewHandlerRegistry(m)
	return m
}

func (m *Manager) Store() *store.Store {
	return m.store
}

// Events provides the registry for commit, revert and approval events.
func (m *Manager) Events() events.HandlerRegistry {
	return m.events
}

// NewTracker creates a tracker with a new working copy
// consisting of a root node for the given content.
func (m *Manager) NewTracker(ctx context.Context, root content.Content, reviewed bool) (*Tracker, error) {
	var t *Tracker
	err := m.db.Transaction(ctx, func(tx *database.Tx) error {
		n, err := m.store.CreateRootTx(ctx, tx, root)
		if err != nil {
			return err
		}
		t = &Tracker{
			ID:          uuid.New().String(),
			WorkingCopy: n.ID,
			Reviewed:    reviewed,
			Created:     utils.NewTimestamp(),
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO trackers ("+trackerColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			t.ID, t.WorkingCopy, nil, database.BoolInt(reviewed), 0, t.Created.String())
		if err != nil {
			return fmt.Errorf("insert tracker: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("created tracker {{tracker}} (reviewed: {{reviewed}})", "tracker", t.ID, "reviewed", reviewed)
	return t, nil
}

func (m *Manager) GetTracker(ctx context.Context, id string) (*Tracker, error) {
	return GetTrackerTx(ctx, m.db, id)
}

func (m *Manager) ListTrackers(ctx context.Context) ([]*Tracker, error) {
	return listTrackersTx(ctx, m.db)
}

func (m *Manager) GetCommit(ctx context.Context, id string) (*Commit, error) {
	return GetCommitTx(ctx, m.db, id)
}

// Commit freezes a copy of the current working tree as new head commit.
// Without publishAt the commit is published immediately.
// If the tracker is modified concurrently database.ErrModified is
// returned, the operation can be repeated with database.Retry.
func (m *Manager) Commit(ctx context.Context, tracker string, author, message string, publishAt *time.Time) (*Commit, error) {
	var c *Commit
	err := m.db.Transaction(ctx, func(tx *database.Tx) error {
		t, err := GetTrackerTx(ctx, tx, tracker)
		if err != nil {
			return err
		}
		root, err := m.store.CloneTreeTx(ctx, tx, t.WorkingCopy, true)
		if err != nil {
			return err
		}
		snap, err := m.store.SnapshotTx(ctx, tx, root.ID)
		if err != nil {
			return err
		}
		hash, err := snap.Hash()
		if err != nil {
			return err
		}

		now := utils.NewTimestamp()
		c = &Commit{
			ID:        uuid.New().String(),
			Tracker:   t.ID,
			Root:      root.ID,
			Parent:    t.Head,
			Author:    author,
			Message:   message,
			CreatedAt: now,
			PublishAt: now,
			Hash:      hash,
			Reviewed:  t.Reviewed,
		}
		if publishAt != nil {
			c.PublishAt = utils.NewTimestampFor(*publishAt)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO commits (id, tracker_id, root, parent_id, author, message, created_at, publish_at, hash) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			c.ID, c.Tracker, c.Root, database.NullString(c.Parent), c.Author, c.Message, c.CreatedAt.String(), c.PublishAt.String(), c.Hash)
		if err != nil {
			return fmt.Errorf("insert commit: %w", err)
		}
		if t.Reviewed {
			if _, err := tx.ExecContext(ctx, "INSERT INTO reviewed_commits (commit_id) VALUES (?)", c.ID); err != nil {
				return fmt.Errorf("insert review state: %w", err)
			}
		}
		t.Head = c.ID
		return updateTrackerTx(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	log.Info("committed {{commit}} for tracker {{tracker}}", "commit", c.ID, "tracker", tracker, "author", author)
	m.events.TriggerEvent(events.Event{Kind: events.KIND_COMMIT, Tracker: tracker, Commit: c.ID})
	return c, nil
}

// Revert replaces the working copy of a tracker by an editable copy
// of the tree of one of its commits. The head is not changed.
func (m *Manager) Revert(ctx context.Context, tracker string, commit string) error {
	err := m.db.Transaction(ctx, func(tx *database.Tx) error {
		t, err := GetTrackerTx(ctx, tx, tracker)
		if err != nil {
			return err
		}
		c, err := GetCommitTx(ctx, tx, commit)
		if err != nil {
			return err
		}
		if c.Tracker != t.ID {
			return fmt.Errorf("commit %q of tracker %q: %w", commit, tracker, database.ErrNotExist)
		}
		root, err := m.store.CloneTreeTx(ctx, tx, c.Root, false)
		if err != nil {
			return err
		}
		old := t.WorkingCopy
		t.WorkingCopy = root.ID
		if err := updateTrackerTx(ctx, tx, t); err != nil {
			return err
		}
		return m.store.DeleteTreeTx(ctx, tx, old)
	})
	if err != nil {
		return err
	}
	log.Info("reverted tracker {{tracker}} to {{commit}}", "tracker", tracker, "commit", commit)
	m.events.TriggerEvent(events.Event{Kind: events.KIND_REVERT, Tracker: tracker, Commit: commit})
	return nil
}

// ResetChanges discards the changes of the working copy since
// the head commit. Without head there is nothing to reset to.
func (m *Manager) ResetChanges(ctx context.Context, tracker string) error {
	t, err := m.GetTracker(ctx, tracker)
	if err != nil {
		return err
	}
	if t.Head == "" {
		return nil
	}
	return m.Revert(ctx, tracker, t.Head)
}

// History lists the commit chain starting with the head, newest first.
func (m *Manager) History(ctx context.Context, tracker string) ([]*Commit, error) {
	t, err := m.GetTracker(ctx, tracker)
	if err != nil {
		return nil, err
	}
	list, err := QueryCommitsTx(ctx, m.db, "c.tracker_id = ?", tracker)
	if err != nil {
		return nil, err
	}
	commits := map[string]*Commit{}
	for _, c := range list {
		commits[c.ID] = c
	}

	var history []*Commit
	for id := t.Head; id != ""; {
		c := commits[id]
		if c == nil {
			return nil, fmt.Errorf("broken commit chain of tracker %q: %w", tracker, database.NotExist("commit", id))
		}
		history = append(history, c)
		id = c.Parent
		if len(history) > len(list) {
			return nil, fmt.Errorf("cyclic commit chain of tracker %q", tracker)
		}
	}
	return history, nil
}

// HasChanges checks whether the working copy differs from the head commit.
// Trackers without commit always have changes.
func (m *Manager) HasChanges(ctx context.Context, tracker string) (bool, error) {
	t, err := m.GetTracker(ctx, tracker)
	if err != nil {
		return false, err
	}
	if t.Head == "" {
		return true, nil
	}
	head, err := m.GetCommit(ctx, t.Head)
	if err != nil {
		return false, err
	}
	snap, err := m.store.Snapshot(ctx, t.WorkingCopy)
	if err != nil {
		return false, err
	}
	hash, err := snap.Hash()
	if err != nil {
		return false, err
	}
	return hash != head.Hash, nil
}

// Live determines the commit to be shown at the given time: the newest
// commit of the chain which is published and, for reviewed trackers,
// approved. It returns nil if there is no such commit.
func (m *Manager) Live(ctx context.Context, tracker string, now time.Time) (*Commit, error) {
	history, err := m.History(ctx, tracker)
	if err != nil {
		return nil, err
	}
	for _, c := range history {
		if c.IsLive(now) {
			return c, nil
		}
	}
	return nil, nil
}

// ListEvents provides the current head commits as commit events.
func (m *Manager) ListEvents(kind string, ns string, atomic func()) ([]events.Event, error) {
	atomic()
	if kind != "" && kind != events.KIND_COMMIT {
		return nil, nil
	}
	trackers, err := m.ListTrackers(context.Background())
	if err != nil {
		return nil, err
	}
	var list []events.Event
	for _, t := range trackers {
		if t.Head != "" && (ns == "" || ns == t.ID) {
			list = append(list, events.Event{Kind: events.KIND_COMMIT, Tracker: t.ID, Commit: t.Head})
		}
	}
	return list, nil
}

// IsNotExist checks for errors caused by missing trackers, commits or nodes.
func IsNotExist(err error) bool {
	return errors.Is(err, database.ErrNotExist)
}
