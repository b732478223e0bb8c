package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/widgy/pkg/database"
)

func NewMigrate(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		Args:  cobra.NoArgs,
	}
	TweakCommand(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := opts.Open(cmd.Context()); err != nil {
			return err
		}
		v, err := opts.db.CurrentSchemaVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", v, opts.db.Dialect().Name())
		if v != database.SchemaVersion() {
			return fmt.Errorf("unexpected schema version %d, expected %d", v, database.SchemaVersion())
		}
		return nil
	}
	return cmd
}
