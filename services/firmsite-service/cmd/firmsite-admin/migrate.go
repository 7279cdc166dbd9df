package main

import (
	"context"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	return withPool(cmd, func(ctx context.Context, pool *db.Pool) error {
		version, err := db.Migrate(ctx, pool, migrations.FS)
		if err != nil {
			return err
		}
		cmd.Printf("Database at migration version %d\n", version)
		return nil
	})
}
