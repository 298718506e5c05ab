// Command migrate applies the embedded schema migrations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vaughan-dsouza/lmsauth/internal/config"
	"github.com/vaughan-dsouza/lmsauth/internal/db"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the users schema",
		SilenceUsage: true,
	}

	for _, c := range []struct{ name, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the latest migration"},
		{"status", "Print the status of every migration"},
		{"version", "Print the current schema version"},
		{"redo", "Roll back and re-apply the latest migration"},
		{"reset", "Roll back every migration"},
	} {
		root.AddCommand(&cobra.Command{
			Use:   c.name,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), cmd.Name())
			},
		})
	}
	return root
}

func runMigrate(ctx context.Context, command string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	conn, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolConfig{MaxOpen: 1, MaxIdle: 1, MaxLifetime: cfg.DBMaxLifetime})
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn.DB, command); err != nil {
		return err
	}
	fmt.Printf("migrate %s: done\n", command)
	return nil
}
