package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/widgy/pkg/config"
	"github.com/mandelsoft/widgy/pkg/ctxutil"
	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/review"
	"github.com/mandelsoft/widgy/pkg/store"
	"github.com/mandelsoft/widgy/pkg/utils"
	"github.com/mandelsoft/widgy/pkg/versioning"
	"github.com/mandelsoft/widgy/pkg/widgets"
)

type Options struct {
	configFile string
	driver     string
	dsn        string
	level      string
	timeout    time.Duration

	fs  vfs.FileSystem
	env func(string) string

	config  *config.Config
	db      *database.DB
	store   *store.Store
	manager *versioning.Manager
	gate    *review.Gate
}

// Config provides the effective configuration.
func (o *Options) Config() *config.Config {
	return o.config
}

func (o *Options) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.fs, o.configFile, o.env)
	if err != nil {
		return err
	}
	if o.driver != "" {
		cfg.Database.Driver = o.driver
	}
	if o.dsn != "" {
		cfg.Database.DSN = o.dsn
	}
	if o.level != "" {
		cfg.Logging.Level = o.level
	}
	o.config = cfg
	return ConfigureLogging(&cfg.Logging, cmd.ErrOrStderr())
}

// Open opens the configured database and brings its schema
// up to date.
func (o *Options) Open(ctx context.Context) error {
	if o.db != nil {
		return nil
	}
	spec, err := o.config.Specification()
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, spec)
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return err
	}
	o.db = db
	o.store = store.New(db, widgets.NewRegistry())
	o.manager = versioning.New(o.store)
	o.gate = review.New(o.manager)
	return nil
}

func (o *Options) Close() error {
	if o.db == nil {
		return nil
	}
	err := o.db.Close()
	o.db = nil
	return err
}

func New(fss ...vfs.FileSystem) *cobra.Command {
	return newCommand(&Options{
		fs:  utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
		env: os.Getenv,
	})
}

func newCommand(opts *Options) *cobra.Command {
	maincmd := &cobra.Command{
		Use:   "widgyctl <options> <cmd> <args>",
		Short: "manage widgy content trees",
		Long: `
This command can be used to manipulate widget trees, their version
trackers and the review state of commits stored in a widgy database.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(ctxutil.TimeoutContext(cmd.Context(), opts.timeout))
			err := opts.setup(cmd)
			if err != nil {
				ctxutil.Cancel(cmd.Context())
			}
			return err
		},
	}

	flags := maincmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "configuration file")
	flags.StringVarP(&opts.dsn, "db", "d", "", "database data source name")
	flags.StringVarP(&opts.driver, "driver", "D", "", fmt.Sprintf("database driver %v", database.Drivers()))
	flags.StringVarP(&opts.level, "log-level", "L", "", "log level")
	flags.DurationVarP(&opts.timeout, "timeout", "T", 0, "operation timeout")

	maincmd.AddCommand(NewMigrate(opts))
	maincmd.AddCommand(NewTracker(opts))
	maincmd.AddCommand(NewNode(opts))
	maincmd.AddCommand(NewTree(opts))
	maincmd.AddCommand(NewCommit(opts))
	maincmd.AddCommand(NewRevert(opts))
	maincmd.AddCommand(NewReset(opts))
	maincmd.AddCommand(NewHistory(opts))
	maincmd.AddCommand(NewDiff(opts))
	maincmd.AddCommand(NewApprove(opts))
	maincmd.AddCommand(NewPending(opts))
	maincmd.AddCommand(NewExport(opts))
	maincmd.AddCommand(NewImport(opts))
	maincmd.AddCommand(NewSeed(opts))
	releaseOnExit(opts, maincmd)
	return maincmd
}

// releaseOnExit closes the database and cancels the command context
// after the run function of every sub command, regardless of its outcome.
// Persistent post run hooks are skipped by cobra for failed commands.
func releaseOnExit(opts *Options, cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		releaseOnExit(opts, c)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			ctxutil.Cancel(cmd.Context())
			if cerr := opts.Close(); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args)
	}
}

// TweakCommand applies the common settings for sub commands.
func TweakCommand(cmd *cobra.Command) {
	cmd.DisableFlagsInUseLine = true
	cmd.SilenceUsage = true
}
