package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/tree"
)

func NewNode(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node <cmd>",
		Short: "manipulate tree nodes",
		Long: `
Nodes are addressed by their id or by their materialized path.
Content is given by its type and field assignments of the form
<field>=<value>. Structured fields can be passed as YAML document
with option --data.
`,
	}
	TweakCommand(cmd)
	cmd.AddCommand(NewNodeAdd(opts))
	cmd.AddCommand(NewNodeMove(opts))
	cmd.AddCommand(NewNodeDelete(opts))
	cmd.AddCommand(NewNodeSet(opts))
	return cmd
}

type contentOptions struct {
	data string
}

func (o *contentOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.data, "data", "", "", "content attributes as YAML document")
}

func (o *contentOptions) content(opts *Options, typ string, assignments []string) (content.Content, error) {
	return ParseContent(opts.store.Registry(), typ, o.data, assignments)
}

////////////////////////////////////////////////////////////////////////////////

type NodeAdd struct {
	cmd      *cobra.Command
	mainopts *Options
	contentOptions

	position string
}

func NewNodeAdd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <target> <type> {<field>=<value>} <options>",
		Short: "add a node relative to a target node",
		Args:  cobra.MinimumNArgs(2),
	}
	TweakCommand(cmd)

	c := &NodeAdd{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	cmd.Flags().StringVarP(&c.position, "position", "p", tree.LastChild.String(), "position relative to target")
	c.addFlags(cmd.Flags())
	return cmd
}

func (c *NodeAdd) Run(args []string) error {
	ctx := c.cmd.Context()
	pos, err := tree.ParsePosition(c.position)
	if err != nil {
		return err
	}
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	target, err := c.mainopts.ResolveNode(ctx, args[0])
	if err != nil {
		return err
	}
	obj, err := c.content(c.mainopts, args[1], args[2:])
	if err != nil {
		return err
	}

	var n *tree.Node
	if pos.IsChild() {
		n, err = c.mainopts.store.AddChild(ctx, target.ID, pos, obj)
	} else {
		n, err = c.mainopts.store.AddSibling(ctx, target.ID, pos, obj)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "node %s added at %s\n", n.ID, n.Path)
	return nil
}

////////////////////////////////////////////////////////////////////////////////

type NodeMove struct {
	cmd      *cobra.Command
	mainopts *Options

	position string
}

func NewNodeMove(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <node> <target> <options>",
		Short: "move a node with its subtree",
		Args:  cobra.ExactArgs(2),
	}
	TweakCommand(cmd)

	c := &NodeMove{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0], args[1]) }
	cmd.Flags().StringVarP(&c.position, "position", "p", tree.LastChild.String(), "position relative to target")
	return cmd
}

func (c *NodeMove) Run(node, target string) error {
	ctx := c.cmd.Context()
	pos, err := tree.ParsePosition(c.position)
	if err != nil {
		return err
	}
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	n, err := c.mainopts.ResolveNode(ctx, node)
	if err != nil {
		return err
	}
	t, err := c.mainopts.ResolveNode(ctx, target)
	if err != nil {
		return err
	}
	if err := c.mainopts.store.Move(ctx, n.ID, t.ID, pos); err != nil {
		return err
	}
	n, err = c.mainopts.store.GetNode(ctx, n.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "node %s moved to %s\n", n.ID, n.Path)
	return nil
}

////////////////////////////////////////////////////////////////////////////////

type NodeDelete struct {
	cmd      *cobra.Command
	mainopts *Options
}

func NewNodeDelete(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete {<node>}",
		Short: "delete nodes with their subtrees",
		Args:  cobra.MinimumNArgs(1),
	}
	TweakCommand(cmd)

	c := &NodeDelete{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *NodeDelete) Run(args []string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	var cmderr error
	for _, a := range args {
		n, err := c.mainopts.ResolveNode(ctx, a)
		if err == nil {
			err = c.mainopts.store.Delete(ctx, n.ID)
		}
		if err != nil {
			fmt.Fprintf(c.cmd.ErrOrStderr(), "%s: %s\n", a, err)
			cmderr = fmt.Errorf("deletion failed")
			continue
		}
		fmt.Fprintf(c.cmd.OutOrStdout(), "%s: deleted\n", a)
	}
	return cmderr
}

////////////////////////////////////////////////////////////////////////////////

type NodeSet struct {
	cmd      *cobra.Command
	mainopts *Options
	contentOptions
}

func NewNodeSet(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <node> <type> {<field>=<value>} <options>",
		Short: "replace the content of a node",
		Args:  cobra.MinimumNArgs(2),
	}
	TweakCommand(cmd)

	c := &NodeSet{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	c.addFlags(cmd.Flags())
	return cmd
}

func (c *NodeSet) Run(args []string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	n, err := c.mainopts.ResolveNode(ctx, args[0])
	if err != nil {
		return err
	}
	obj, err := c.content(c.mainopts, args[1], args[2:])
	if err != nil {
		return err
	}
	if err := c.mainopts.store.SetContent(ctx, n.ID, obj); err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "content of node %s set to %s\n", n.Path, obj.GetType())
	return nil
}
