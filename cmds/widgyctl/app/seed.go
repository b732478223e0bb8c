package app

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/goombaio/namegenerator"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/tree"
	"github.com/mandelsoft/widgy/pkg/versioning"
	"github.com/mandelsoft/widgy/pkg/widgets"
)

type Seed struct {
	cmd      *cobra.Command
	mainopts *Options

	sections int
	commit   bool
	reviewed bool
	seed     int64
}

func NewSeed(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [<count>] <options>",
		Short: "create trackers with generated demo pages",
		Args:  cobra.MaximumNArgs(1),
	}
	TweakCommand(cmd)

	c := &Seed{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.IntVarP(&c.sections, "sections", "n", 3, "number of sections per page")
	flags.BoolVarP(&c.commit, "commit", "C", false, "commit the generated pages")
	flags.BoolVarP(&c.reviewed, "reviewed", "r", false, "trackers require approvals")
	flags.Int64VarP(&c.seed, "seed", "S", 0, "random seed (default current time)")
	return cmd
}

func (c *Seed) Run(args []string) error {
	ctx := c.cmd.Context()
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		count = n
	}
	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if err := c.mainopts.Open(ctx); err != nil {
		return err
	}

	g := &generator{
		names:  namegenerator.NewNameGenerator(seed),
		random: rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < count; i++ {
		t, err := c.page(ctx, g)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("tracker %s created", t.ID)
		if c.commit {
			cm, err := database.RetryValue(ctx, func() (*versioning.Commit, error) {
				return c.mainopts.manager.Commit(ctx, t.ID, "seed", "generated page", nil)
			})
			if err != nil {
				return err
			}
			msg += fmt.Sprintf(" (commit %s)", cm.ID)
		}
		fmt.Fprintln(c.cmd.OutOrStdout(), msg)
	}
	return nil
}

func (c *Seed) page(ctx context.Context, g *generator) (*versioning.Tracker, error) {
	s := c.mainopts.store
	t, err := c.mainopts.manager.NewTracker(ctx, widgets.NewLayout(g.names.Generate(), ""), c.reviewed)
	if err != nil {
		return nil, err
	}
	for i := 0; i < c.sections; i++ {
		sec, err := s.AddChild(ctx, t.WorkingCopy, tree.LastChild, widgets.NewSection(g.names.Generate()))
		if err != nil {
			return nil, err
		}
		for j := 0; j < 1+g.random.Intn(3); j++ {
			if _, err := s.AddChild(ctx, sec.ID, tree.LastChild, g.widget()); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

type generator struct {
	names  namegenerator.Generator
	random *rand.Rand
}

func (g *generator) widget() content.Content {
	switch g.random.Intn(4) {
	case 0:
		return widgets.NewTable([]string{"name", "value"},
			[]string{g.names.Generate(), strconv.Itoa(g.random.Intn(100))},
			[]string{g.names.Generate(), strconv.Itoa(g.random.Intn(100))},
		)
	case 1:
		return widgets.NewCallout(g.names.Generate(), "generated note", widgets.CalloutStyles[g.random.Intn(len(widgets.CalloutStyles))])
	case 2:
		return widgets.NewForm(g.names.Generate(),
			widgets.Field{Name: "name", Label: "Name", Kind: widgets.FIELD_TEXT, Required: true},
			widgets.Field{Name: "mail", Label: "Mail", Kind: widgets.FIELD_EMAIL},
		)
	}
	return widgets.NewMarkdown("# " + g.names.Generate() + "\n\ngenerated text")
}
