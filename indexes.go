package main

import (
	"task-manager/server/repositories"

	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client, err := connectMongo(cmd.Context(), cfg.Mongo)
		if err != nil {
			return err
		}
		defer client.Disconnect(cmd.Context())
		return repositories.EnsureIndexes(cmd.Context(), client.Database(cfg.Mongo.Database))
	},
}
