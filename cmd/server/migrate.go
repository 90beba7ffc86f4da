package main

import (
	"context"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema, seed defaults and rewrite legacy statuses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		gdb, _, err := openStore(context.Background(), cfg, log)
		if err != nil {
			return err
		}
		closeDB(gdb, log)
		log.Info("migration finished")
		return nil
	},
}
