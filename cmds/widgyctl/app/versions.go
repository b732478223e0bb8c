package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/versioning"
)

type Commit struct {
	cmd      *cobra.Command
	mainopts *Options

	author    string
	message   string
	publishAt string
}

func NewCommit(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit <tracker> <options>",
		Short: "commit the working copy of a tracker",
		Args:  cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Commit{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0]) }
	flags := cmd.Flags()
	flags.StringVarP(&c.author, "author", "a", "", "commit author (default $USER)")
	flags.StringVarP(&c.message, "message", "m", "", "commit message")
	flags.StringVarP(&c.publishAt, "publish-at", "P", "", "publish time (RFC3339)")
	return cmd
}

func (c *Commit) Run(tracker string) error {
	ctx := c.cmd.Context()
	var publishAt *time.Time
	if c.publishAt != "" {
		t, err := time.Parse(time.RFC3339, c.publishAt)
		if err != nil {
			return fmt.Errorf("invalid publish time %q: %w", c.publishAt, err)
		}
		publishAt = &t
	}
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	commit, err := database.RetryValue(ctx, func() (*versioning.Commit, error) {
		return c.mainopts.manager.Commit(ctx, tracker, Author(c.author), c.message, publishAt)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "commit %s created\n", commit.ID)
	return nil
}

////////////////////////////////////////////////////////////////////////////////

type Revert struct {
	cmd      *cobra.Command
	mainopts *Options
}

func NewRevert(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert <tracker> <commit>",
		Short: "replace the working copy by the tree of a commit",
		Args:  cobra.ExactArgs(2),
	}
	TweakCommand(cmd)

	c := &Revert{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0], args[1]) }
	return cmd
}

func (c *Revert) Run(tracker, commit string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	err := database.Retry(ctx, func() error {
		return c.mainopts.manager.Revert(ctx, tracker, commit)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "tracker %s reverted to %s\n", tracker, commit)
	return nil
}

////////////////////////////////////////////////////////////////////////////////

type Reset struct {
	cmd      *cobra.Command
	mainopts *Options
}

func NewReset(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <tracker>",
		Short: "discard the changes since the head commit",
		Args:  cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Reset{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0]) }
	return cmd
}

func (c *Reset) Run(tracker string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	err := database.Retry(ctx, func() error {
		return c.mainopts.manager.ResetChanges(ctx, tracker)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "tracker %s reset\n", tracker)
	return nil
}

////////////////////////////////////////////////////////////////////////////////

type History struct {
	cmd      *cobra.Command
	mainopts *Options

	output string
	sort   string
}

func NewHistory(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <tracker> <options>",
		Short: "list the commit chain of a tracker, newest first",
		Args:  cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &History{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0]) }
	outputFlags(cmd.Flags(), &c.output, &c.sort)
	return cmd
}

func (c *History) Run(tracker string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	list, err := c.mainopts.manager.History(ctx, tracker)
	if err != nil {
		return err
	}
	out := &Output{
		Columns: []string{"ID", "CREATED", "AUTHOR", "STATE", "MESSAGE"},
		Object:  list,
		Empty:   "no commit found",
	}
	t := now()
	live := ""
	for _, cm := range list {
		if live == "" && cm.IsLive(t) {
			live = cm.ID
		}
	}
	for _, cm := range list {
		out.AddRow(cm.ID, cm.CreatedAt.String(), cm.Author, CommitState(cm, live, t), cm.Message)
	}
	return out.Print(c.cmd.OutOrStdout(), c.output, c.sort)
}

// CommitState describes the publishing state of a commit.
func CommitState(c *versioning.Commit, live string, t time.Time) string {
	switch {
	case c.ID == live:
		return "live"
	case !c.IsPublished(t):
		return "scheduled"
	case c.Reviewed && !c.IsApproved():
		return "pending"
	}
	return "outdated"
}

////////////////////////////////////////////////////////////////////////////////

type Diff struct {
	cmd      *cobra.Command
	mainopts *Options

	output string
}

func NewDiff(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <tracker> [<from commit> [<to commit>]] <options>",
		Short: "compare trees of a tracker",
		Long: `
Compares two commits of a tracker. Without commits the head is compared
with the working copy. With a single commit it is compared with the
working copy.
`,
		Args: cobra.RangeArgs(1, 3),
	}
	TweakCommand(cmd)

	c := &Diff{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	outputFlags(cmd.Flags(), &c.output, nil)
	return cmd
}

func (c *Diff) Run(args []string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	tracker := args[0]
	var from, to string
	if len(args) > 1 {
		from = args[1]
	} else {
		t, err := c.mainopts.manager.GetTracker(ctx, tracker)
		if err != nil {
			return err
		}
		if t.Head == "" {
			return fmt.Errorf("tracker %q has no commit", tracker)
		}
		from = t.Head
	}
	if len(args) > 2 {
		to = args[2]
	}
	d, err := c.mainopts.manager.Diff(ctx, tracker, from, to)
	if err != nil {
		return err
	}

	out := &Output{
		Columns: []string{"CHANGE", "POSITION", "TYPE", "DESCRIPTION"},
		Object:  d,
		Empty:   "no differences",
	}
	for _, e := range d.Removed {
		out.AddRow("-", e.Position, e.Type, e.Description)
	}
	for _, e := range d.Changed {
		typ := e.To.Type
		if e.From.Type != e.To.Type {
			typ = e.From.Type + " -> " + e.To.Type
		}
		out.AddRow("~", e.Position, typ, e.To.Description)
	}
	for _, e := range d.Added {
		out.AddRow("+", e.Position, e.Type, e.Description)
	}
	return out.Print(c.cmd.OutOrStdout(), c.output, "")
}
