package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/kleptokart/kleptokart/config"
	"github.com/kleptokart/kleptokart/database/seeders"
	"github.com/kleptokart/kleptokart/pkg/database"
	"github.com/kleptokart/kleptokart/pkg/migration"
)

// withDB loads config, opens the database, runs fn and closes the handle.
func withDB(ctx context.Context, fn func(db *gorm.DB) error) error {
	if err := config.Load(); err != nil {
		return err
	}
	db, err := database.Open(ctx, database.OptionsFromConfig())
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	return fn(db)
}

// kleptokart migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *gorm.DB) error {
			ran, err := migration.New(db).Run(cmd.Context())
			if err != nil {
				return err
			}
			if len(ran) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
			}
			for _, name := range ran {
				fmt.Fprintf(cmd.OutOrStdout(), "Migrated: %s\n", name)
			}
			return nil
		})
	},
}

// kleptokart migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *gorm.DB) error {
			rolled, err := migration.New(db).Rollback(cmd.Context())
			if err != nil {
				return err
			}
			if len(rolled) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to rollback.")
			}
			for _, name := range rolled {
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back: %s\n", name)
			}
			return nil
		})
	},
}

// kleptokart migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *gorm.DB) error {
			rows, err := migration.New(db).Status(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
			for _, row := range rows {
				ran, batch := "No", "-"
				if row.Ran {
					ran, batch = "Yes", fmt.Sprint(row.Batch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, row.Name)
			}
			return w.Flush()
		})
	},
}

// kleptokart seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *gorm.DB) error {
			n, err := seeders.RunAll(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ran %d seeder(s).\n", n)
			return nil
		})
	},
}
