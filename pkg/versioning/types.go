package versioning

import (
	"time"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/utils"
)

// Tracker is the version tracker of a working copy tree.
type Tracker struct {
	ID string `json:"id"`
	// WorkingCopy is the root node of the editable tree.
	WorkingCopy string `json:"workingCopy"`
	// Head is the latest commit, empty if nothing has been committed yet.
	Head string `json:"head,omitempty"`
	// Reviewed trackers require commits to be approved before they go live.
	Reviewed bool `json:"reviewed"`

	database.Generation `json:",inline"`
	Created             utils.Timestamp `json:"created"`
}

// Commit is an immutable snapshot of a working copy.
type Commit struct {
	ID      string `json:"id"`
	Tracker string `json:"tracker"`
	// Root is the root node of the frozen tree.
	Root    string `json:"root"`
	Parent  string `json:"parent,omitempty"`
	Author  string `json:"author"`
	Message string `json:"message,omitempty"`

	CreatedAt utils.Timestamp `json:"createdAt"`
	PublishAt utils.Timestamp `json:"publishAt"`
	// Hash is the structural hash of the committed tree.
	Hash string `json:"hash"`

	Reviewed   bool             `json:"reviewed,omitempty"`
	ApprovedAt *utils.Timestamp `json:"approvedAt,omitempty"`
	ApprovedBy string           `json:"approvedBy,omitempty"`
}

func (c *Commit) IsApproved() bool {
	return c.ApprovedAt != nil
}

// IsPublished checks whether the publish time has been reached.
func (c *Commit) IsPublished(now time.Time) bool {
	return !c.PublishAt.Time().After(now)
}

// IsLive checks whether the commit may be shown at the given time.
// Commits of reviewed trackers must be approved.
func (c *Commit) IsLive(now time.Time) bool {
	return c.IsPublished(now) && (!c.Reviewed || c.IsApproved())
}
