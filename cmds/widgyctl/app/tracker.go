package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/widgy/pkg/utils"
	"github.com/mandelsoft/widgy/pkg/versioning"
	"github.com/mandelsoft/widgy/pkg/widgets"
)

func NewTracker(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker <cmd>",
		Short: "manage version trackers",
	}
	TweakCommand(cmd)
	cmd.AddCommand(NewTrackerCreate(opts))
	cmd.AddCommand(NewTrackerList(opts))
	cmd.AddCommand(NewTrackerShow(opts))
	return cmd
}

////////////////////////////////////////////////////////////////////////////////

type TrackerCreate struct {
	cmd      *cobra.Command
	mainopts *Options

	title    string
	language string
	reviewed bool
}

func NewTrackerCreate(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <options>",
		Short: "create a tracker with a new layout tree",
		Args:  cobra.NoArgs,
	}
	TweakCommand(cmd)

	c := &TrackerCreate{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	flags := cmd.Flags()
	flags.StringVarP(&c.title, "title", "t", "", "layout title")
	flags.StringVarP(&c.language, "language", "l", "", "layout language")
	flags.BoolVarP(&c.reviewed, "reviewed", "r", false, "commits require approval (default from config)")
	return cmd
}

func (c *TrackerCreate) Run() error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	reviewed := c.mainopts.config.Review.Required
	if c.cmd.Flags().Changed("reviewed") {
		reviewed = c.reviewed
	}
	t, err := c.mainopts.manager.NewTracker(ctx, widgets.NewLayout(c.title, c.language), reviewed)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "tracker %s created (working copy %s)\n", t.ID, t.WorkingCopy)
	return nil
}

////////////////////////////////////////////////////////////////////////////////

type TrackerList struct {
	cmd      *cobra.Command
	mainopts *Options

	output string
	sort   string
}

func NewTrackerList(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <options>",
		Short: "list version trackers",
		Args:  cobra.NoArgs,
	}
	TweakCommand(cmd)

	c := &TrackerList{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	outputFlags(cmd.Flags(), &c.output, &c.sort)
	return cmd
}

func (c *TrackerList) Run() error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	list, err := c.mainopts.manager.ListTrackers(ctx)
	if err != nil {
		return err
	}
	out := &Output{
		Columns: []string{"ID", "TITLE", "REVIEWED", "HEAD", "CREATED"},
		Object:  list,
		Empty:   "no tracker found",
	}
	for _, t := range list {
		title := ""
		if root, err := c.mainopts.store.GetContent(ctx, t.WorkingCopy); err == nil {
			title = utils.DescribeObject(root)
		}
		out.AddRow(t.ID, title, strconv.FormatBool(t.Reviewed), shortID(t.Head), t.Created.String())
	}
	return out.Print(c.cmd.OutOrStdout(), c.output, c.sort)
}

////////////////////////////////////////////////////////////////////////////////

type TrackerInfo struct {
	*versioning.Tracker `json:",inline"`

	Changed bool   `json:"changed"`
	Live    string `json:"live,omitempty"`
	Commits int    `json:"commits"`
}

type TrackerShow struct {
	cmd      *cobra.Command
	mainopts *Options

	output string
}

func NewTrackerShow(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <tracker> <options>",
		Short: "show the state of a version tracker",
		Args:  cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &TrackerShow{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0]) }
	outputFlags(cmd.Flags(), &c.output, nil)
	return cmd
}

func (c *TrackerShow) Run(id string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	m := c.mainopts.manager
	t, err := m.GetTracker(ctx, id)
	if err != nil {
		return err
	}
	info := &TrackerInfo{Tracker: t}
	if info.Changed, err = m.HasChanges(ctx, id); err != nil {
		return err
	}
	history, err := m.History(ctx, id)
	if err != nil {
		return err
	}
	info.Commits = len(history)
	live, err := m.Live(ctx, id, now())
	if err != nil {
		return err
	}
	if live != nil {
		info.Live = live.ID
	}

	out := &Output{
		Columns: []string{"ATTRIBUTE", "VALUE"},
		Object:  info,
	}
	out.AddRow("id", t.ID)
	out.AddRow("working copy", t.WorkingCopy)
	out.AddRow("head", t.Head)
	out.AddRow("reviewed", strconv.FormatBool(t.Reviewed))
	out.AddRow("changed", strconv.FormatBool(info.Changed))
	out.AddRow("commits", strconv.Itoa(info.Commits))
	out.AddRow("live", info.Live)
	out.AddRow("created", t.Created.String())
	return out.Print(c.cmd.OutOrStdout(), c.output, "")
}
