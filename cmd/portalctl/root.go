package main

import (
	"fmt"
	"os"

	"hackathon-portal/internal/config"
	"hackathon-portal/internal/db"
	"hackathon-portal/internal/logging"
	"hackathon-portal/internal/model"
	"hackathon-portal/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "portalctl",
	Short:        "Operator tools for the hackathon portal",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.LoadDotEnv(".env"); err != nil {
			log.Warn().Err(err).Msg("failed to load .env")
		}
		cfg := config.Load()
		logging.Setup(cfg.LogLevel, cfg.LogFormat)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loadProblemsCmd)
	rootCmd.AddCommand(createTeamCmd)
	rootCmd.AddCommand(createReviewerCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(newMigrationCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore connects to the configured database and brings the schema up to
// date.
func openStore() (*store.Gorm, config.Config, error) {
	cfg := config.Load()
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, cfg, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return nil, cfg, fmt.Errorf("database migration failed: %w", err)
	}
	return store.NewGorm(conn), cfg, nil
}

func configDefaults(cfg config.Config) model.Config {
	return model.Config{DurationMinutes: cfg.DefaultDurationMinutes, IsPaused: true}
}
