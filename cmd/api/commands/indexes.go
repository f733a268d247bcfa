package commands

import (
	"context"
	"time"

	"github.com/developia-II/storeblog-backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes",
	Long:  `Creates every index the repositories rely on, including the unique slug, email and username indexes. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		db, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())

		if err := database.EnsureIndexes(ctx, db.DB); err != nil {
			return err
		}
		logrus.Info("Indexes are up to date")
		return nil
	},
}
