package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/events"
	"github.com/mandelsoft/widgy/pkg/utils"
	"github.com/mandelsoft/widgy/pkg/versioning"
)

// ErrNotReviewed is returned for review operations on commits
// of trackers not using the review gate.
var ErrNotReviewed = errors.New("commit is not subject to review")

var ErrNoApprover = errors.New("approver required")

// Approval is the review state of a commit.
type Approval struct {
	Commit     string           `json:"commit"`
	ApprovedAt *utils.Timestamp `json:"approvedAt,omitempty"`
	ApprovedBy string           `json:"approvedBy,omitempty"`
}

func (a *Approval) IsApproved() bool {
	return a.ApprovedAt != nil
}

// Gate manages the approval state of commits of reviewed trackers.
type Gate struct {
	versions *versioning.Manager
	db       *database.DB
}

func New(m *versioning.Manager) *Gate {
	return &Gate{
		versions: m,
		db:       m.Store().Database(),
	}
}

// Approve marks a commit as approved by the given approver.
// Approvals are never revoked or overwritten: approving an
// approved commit keeps the original approval.
func (g *Gate) Approve(ctx context.Context, commit string, approver string) (*Approval, error) {
	if approver == "" {
		return nil, ErrNoApprover
	}
	var result *Approval
	var changed bool
	var tracker string
	err := g.db.Transaction(ctx, func(tx *database.Tx) error {
		c, err := versioning.GetCommitTx(ctx, tx, commit)
		if err != nil {
			return err
		}
		if !c.Reviewed {
			return fmt.Errorf("%w: %s", ErrNotReviewed, commit)
		}
		tracker = c.Tracker
		if c.IsApproved() {
			result = approval(c)
			return nil
		}
		ts := utils.NewTimestampFor(time.Now())
		n, err := database.ExecAffected(ctx, tx,
			"UPDATE reviewed_commits SET approved_at = ?, approved_by = ? WHERE commit_id = ? AND approved_at IS NULL",
			ts.String(), approver, commit)
		if err != nil {
			return fmt.Errorf("approve commit %q: %w", commit, err)
		}
		if n == 0 {
			return fmt.Errorf("review state of commit %q: %w", commit, database.ErrNotExist)
		}
		changed = true
		result = &Approval{Commit: commit, ApprovedAt: &ts, ApprovedBy: approver}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		log.Info("commit {{commit}} approved by {{approver}}", "commit", commit, "approver", approver)
		g.versions.Events().TriggerEvent(events.Event{Kind: events.KIND_APPROVE, Tracker: tracker, Commit: commit})
	} else {
		log.Debug("commit {{commit}} already approved", "commit", commit)
	}
	return result, nil
}

// Approval provides the review state of a commit.
func (g *Gate) Approval(ctx context.Context, commit string) (*Approval, error) {
	c, err := versioning.GetCommitTx(ctx, g.db, commit)
	if err != nil {
		return nil, err
	}
	if !c.Reviewed {
		return nil, fmt.Errorf("%w: %s", ErrNotReviewed, commit)
	}
	return approval(c), nil
}

// Pending lists the unapproved commits of all reviewed trackers, oldest first.
// With trackers given, the list is restricted to those trackers.
func (g *Gate) Pending(ctx context.Context, trackers ...string) ([]*versioning.Commit, error) {
	list, err := versioning.QueryCommitsTx(ctx, g.db, "r.commit_id IS NOT NULL AND r.approved_at IS NULL")
	if err != nil {
		return nil, err
	}
	if len(trackers) == 0 {
		return list, nil
	}
	sel := sets.New(trackers...)
	return utils.FilterSlice(list, func(c *versioning.Commit) bool {
		return sel.Has(c.Tracker)
	}), nil
}

func approval(c *versioning.Commit) *Approval {
	return &Approval{
		Commit:     c.ID,
		ApprovedAt: c.ApprovedAt,
		ApprovedBy: c.ApprovedBy,
	}
}
