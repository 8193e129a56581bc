// Command kleptokart runs the marketplace API and its maintenance tasks.
//
//	kleptokart serve              # HTTP API (+ gRPC health when GRPC_PORT is set)
//	kleptokart route:list         # print the route table
//	kleptokart migrate            # run pending migrations
//	kleptokart migrate:rollback   # undo the last batch
//	kleptokart migrate:status
//	kleptokart seed               # insert demo listings into an empty table
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import migrations so their init() funcs run and register themselves.
	_ "github.com/kleptokart/kleptokart/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "kleptokart",
	Short:         "Kleptokart peer-to-peer marketplace",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
}
