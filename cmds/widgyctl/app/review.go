package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

type Approve struct {
	cmd      *cobra.Command
	mainopts *Options

	approver string
}

func NewApprove(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve {<commit>} <options>",
		Short: "approve commits of reviewed trackers",
		Args:  cobra.MinimumNArgs(1),
	}
	TweakCommand(cmd)

	c := &Approve{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	cmd.Flags().StringVarP(&c.approver, "approver", "a", "", "approver (default $USER)")
	return cmd
}

func (c *Approve) Run(args []string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	var cmderr error
	for _, id := range args {
		a, err := c.mainopts.gate.Approve(ctx, id, Author(c.approver))
		if err != nil {
			fmt.Fprintf(c.cmd.ErrOrStderr(), "%s: %s\n", id, err)
			cmderr = fmt.Errorf("approval failed")
			continue
		}
		fmt.Fprintf(c.cmd.OutOrStdout(), "%s: approved by %s at %s\n", id, a.ApprovedBy, a.ApprovedAt)
	}
	return cmderr
}

////////////////////////////////////////////////////////////////////////////////

type Pending struct {
	cmd      *cobra.Command
	mainopts *Options

	output string
	sort   string
}

func NewPending(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending {<tracker>} <options>",
		Short: "list commits waiting for approval",
	}
	TweakCommand(cmd)

	c := &Pending{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	outputFlags(cmd.Flags(), &c.output, &c.sort)
	return cmd
}

func (c *Pending) Run(trackers []string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	list, err := c.mainopts.gate.Pending(ctx, trackers...)
	if err != nil {
		return err
	}
	out := &Output{
		Columns: []string{"ID", "TRACKER", "CREATED", "AUTHOR", "MESSAGE"},
		Object:  list,
		Empty:   "no pending commit",
	}
	for _, cm := range list {
		out.AddRow(cm.ID, cm.Tracker, cm.CreatedAt.String(), cm.Author, cm.Message)
	}
	return out.Print(c.cmd.OutOrStdout(), c.output, c.sort)
}
