// Command firmsite-admin is the operator tool for the firm site: it applies migrations and
// manages accounts, services, plannings, posts and comment moderation.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/Kristaal/Law-firm/libs/config"
	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "firmsite-admin",
	Short:         "Operate the firm site database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var databaseURL string

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default $DATABASE_URL)")
}

// withPool opens the database for one command and closes it afterwards.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, pool *db.Pool) error) error {
	url := databaseURL
	if url == "" {
		url = config.String("DATABASE_URL", "")
	}
	if url == "" {
		return errors.New("DATABASE_URL is required")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := db.Open(ctx, url, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

func main() {
	if err := config.LoadDotenv(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
