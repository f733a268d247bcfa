package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/developia-II/storeblog-backend/internal/config"
	"github.com/developia-II/storeblog-backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "storeblog",
	Short: "Storeblog - storefront and blog REST backend",
	Long: `Storeblog serves the storefront catalog, carts, checkout and the blog
over a JSON REST API backed by MongoDB.

Commands:
  serve          run the HTTP API
  indexes        create the MongoDB indexes
  promote-admin  grant the admin role to an existing account`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(serveCmd, indexesCmd, promoteAdminCmd)
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
}

func connect(ctx context.Context, cfg *config.Config) (*database.Database, error) {
	logrus.WithField("database", cfg.Mongo.Database).Info("Connecting to MongoDB...")
	db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	logrus.Info("Connected to MongoDB")
	return db, nil
}
