package versioning

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/utils"
)

const trackerColumns = "id, working_copy, head, reviewed, generation, created"

const commitQuery = `SELECT c.id, c.tracker_id, c.root, c.parent_id, c.author, c.message, c.created_at, c.publish_at, c.hash,
       t.reviewed, r.approved_at, r.approved_by
  FROM commits c
  JOIN trackers t ON t.id = c.tracker_id
  LEFT JOIN reviewed_commits r ON r.commit_id = c.id`

type scanner interface {
	Scan(...interface{}) error
}

func scanTracker(s scanner) (*Tracker, error) {
	var t Tracker
	var head sql.NullString
	var reviewed int
	var created string
	if err := s.Scan(&t.ID, &t.WorkingCopy, &head, &reviewed, &t.Generation.Generation, &created); err != nil {
		return nil, err
	}
	t.Head = head.String
	t.Reviewed = reviewed != 0
	ts, err := utils.ParseTimestamp(created)
	if err != nil {
		return nil, err
	}
	t.Created = ts
	return &t, nil
}

func scanCommit(s scanner) (*Commit, error) {
	var c Commit
	var parent, approvedAt, approvedBy sql.NullString
	var created, publish string
	var reviewed int
	if err := s.Scan(&c.ID, &c.Tracker, &c.Root, &parent, &c.Author, &c.Message, &created, &publish, &c.Hash,
		&reviewed, &approvedAt, &approvedBy); err != nil {
		return nil, err
	}
	var err error
	c.Parent = parent.String
	c.Reviewed = reviewed != 0
	c.ApprovedBy = approvedBy.String
	if c.CreatedAt, err = utils.ParseTimestamp(created); err != nil {
		return nil, err
	}
	if c.PublishAt, err = utils.ParseTimestamp(publish); err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		if c.ApprovedAt, err = utils.ParseTimestampP(&approvedAt.String); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func GetTrackerTx(ctx context.Context, q database.Querier, id string) (*Tracker, error) {
	t, err := scanTracker(q.QueryRowContext(ctx, "SELECT "+trackerColumns+" FROM trackers WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, database.NotExist("tracker", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get tracker %q: %w", id, err)
	}
	return t, nil
}

func listTrackersTx(ctx context.Context, q database.Querier) ([]*Tracker, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+trackerColumns+" FROM trackers ORDER BY created, id")
	if err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	defer rows.Close()

	var list []*Tracker
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func GetCommitTx(ctx context.Context, q database.Querier, id string) (*Commit, error) {
	c, err := scanCommit(q.QueryRowContext(ctx, commitQuery+" WHERE c.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, database.NotExist("commit", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get commit %q: %w", id, err)
	}
	return c, nil
}

// QueryCommitsTx lists commits matching an optional condition
// on the commit (c), tracker (t) and review (r) tables.
func QueryCommitsTx(ctx context.Context, q database.Querier, cond string, args ...interface{}) ([]*Commit, error) {
	query := commitQuery
	if cond != "" {
		query += " WHERE " + cond
	}
	rows, err := q.QueryContext(ctx, query+" ORDER BY c.created_at, c.id", args...)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var list []*Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// updateTrackerTx updates the working copy and head of a tracker
// if it has not been modified since it has been read.
func updateTrackerTx(ctx context.Context, q database.Querier, t *Tracker) error {
	n, err := database.ExecAffected(ctx, q,
		"UPDATE trackers SET working_copy = ?, head = ?, generation = ? WHERE id = ? AND generation = ?",
		t.WorkingCopy, database.NullString(t.Head), t.GetGeneration()+1, t.ID, t.GetGeneration())
	if err != nil {
		return fmt.Errorf("update tracker %q: %w", t.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("tracker %q: %w", t.ID, database.ErrModified)
	}
	t.SetGeneration(t.GetGeneration() + 1)
	return nil
}
