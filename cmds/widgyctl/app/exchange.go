package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/widgy/pkg/exchange"
)

type Export struct {
	cmd      *cobra.Command
	mainopts *Options

	file string
}

func NewExport(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <tracker|node> <options>",
		Short: "export a content tree as YAML document",
		Args:  cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Export{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0]) }
	cmd.Flags().StringVarP(&c.file, "file", "f", "", "output file (default stdout)")
	return cmd
}

func (c *Export) Run(ref string) error {
	ctx := c.cmd.Context()
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	root, err := c.mainopts.ResolveRoot(ctx, ref)
	if err != nil {
		return err
	}
	doc, err := exchange.Export(ctx, c.mainopts.store, root.ID)
	if err != nil {
		return err
	}
	if c.file != "" {
		if err := exchange.WriteFile(c.mainopts.fs, c.file, doc); err != nil {
			return err
		}
		fmt.Fprintf(c.cmd.OutOrStdout(), "%d nodes exported to %s\n", doc.Root.Count(), c.file)
		return nil
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = c.cmd.OutOrStdout().Write(data)
	return err
}

////////////////////////////////////////////////////////////////////////////////

type Import struct {
	cmd      *cobra.Command
	mainopts *Options

	into     string
	tracker  bool
	reviewed bool
}

func NewImport(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file> <options>",
		Short: "import a content tree from a YAML document",
		Long: `
Imports a document as new top level tree. With option --tracker
a new tracker is created for it. With option --into the children
of the document root are appended to an existing node.
`,
		Args: cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Import{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args[0]) }
	flags := cmd.Flags()
	flags.StringVarP(&c.into, "into", "i", "", "append to node or tracker working copy")
	flags.BoolVarP(&c.tracker, "tracker", "t", false, "create a tracker for the imported tree")
	flags.BoolVarP(&c.reviewed, "reviewed", "r", false, "created tracker requires approvals (default from config)")
	return cmd
}

func (c *Import) Run(file string) error {
	ctx := c.cmd.Context()
	if c.into != "" && c.tracker {
		return fmt.Errorf("options --into and --tracker are exclusive")
	}
	doc, err := exchange.ReadFile(c.mainopts.fs, file)
	if err != nil {
		return err
	}
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}
	s := c.mainopts.store

	switch {
	case c.into != "":
		n, err := c.mainopts.ResolveRoot(ctx, c.into)
		if err != nil {
			return err
		}
		if err := exchange.ImportChildren(ctx, s, n.ID, doc); err != nil {
			return err
		}
		fmt.Fprintf(c.cmd.OutOrStdout(), "%d nodes imported into %s\n", doc.Root.Count()-1, n.Path)
	case c.tracker:
		root, err := exchange.Decode(s.Registry(), doc.Root)
		if err != nil {
			return err
		}
		reviewed := c.mainopts.config.Review.Required
		if c.cmd.Flags().Changed("reviewed") {
			reviewed = c.reviewed
		}
		t, err := c.mainopts.manager.NewTracker(ctx, root, reviewed)
		if err != nil {
			return err
		}
		if err := exchange.ImportChildren(ctx, s, t.WorkingCopy, doc); err != nil {
			return err
		}
		fmt.Fprintf(c.cmd.OutOrStdout(), "tracker %s created with %d nodes\n", t.ID, doc.Root.Count())
	default:
		n, err := exchange.Import(ctx, s, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.cmd.OutOrStdout(), "%d nodes imported as %s\n", doc.Root.Count(), n.Path)
	}
	return nil
}
