package app

import (
	"strings"

	"github.com/spf13/cobra"
)

type Tree struct {
	cmd      *cobra.Command
	mainopts *Options

	output string
}

func NewTree(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <tracker|node> <options>",
		Short: "show a content tree",
		Long: `
Shows the tree below a node or the working copy of a tracker.
The position column lists the one based sibling indices from the root.
`,
		Args: cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Tree{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0]) }
	outputFlags(cmd.Flags(), &c.output, nil)
	return cmd
}

func (c *Tree) Run(ref string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	root, err := c.mainopts.ResolveRoot(ctx, ref)
	if err != nil {
		return err
	}
	snap, err := c.mainopts.store.Snapshot(ctx, root.ID)
	if err != nil {
		return err
	}

	out := &Output{
		Columns: []string{"POSITION", "TYPE", "DESCRIPTION"},
		Object:  snap,
	}
	for _, e := range snap.Entries {
		indent := ""
		if e.Position != "" {
			indent = strings.Repeat("  ", strings.Count(e.Position, ".")+1)
		}
		pos := e.Position
		if pos == "" {
			pos = "/"
		}
		out.AddRow(pos, indent+e.Type, e.Description)
	}
	return out.Print(c.cmd.OutOrStdout(), c.output, "")
}
