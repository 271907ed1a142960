package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trendgraph/internal/annotations"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the schema of the SQL annotation backend",
		Long: `Migrate moves the annotation schema of the sqlite, mysql or postgres backend.
Without --version it migrates to the latest version; --version 0 rolls every
migration back.`,
		Args: cobra.NoArgs,
		RunE: c.runMigrate,
	}
	cmd.Flags().Int("version", -1, "Target schema version (-1 for the latest)")
	return cmd
}

func (c *cli) runMigrate(cmd *cobra.Command, _ []string) error {
	kind := annotations.BackendKind(c.cfg.AnnotationBackend)
	driver, err := annotations.DriverFor(kind)
	if err != nil {
		return err
	}
	dsn := c.cfg.AnnotationDBDSN
	if kind == annotations.BackendSQLite && dsn == "" {
		dsn = annotations.DefaultSQLiteDSN
	}

	db, err := annotations.OpenSQL(cmd.Context(), driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	version, _ := cmd.Flags().GetInt("version")
	if err := annotations.Migrate(db, driver, version); err != nil {
		return err
	}

	target := "latest"
	if version >= 0 {
		target = fmt.Sprintf("version %d", version)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s annotation schema to %s\n", kind, target)
	return err
}
