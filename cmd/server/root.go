package main

import (
	"context"
	"log/slog"
	"time"

	"finsignal/internal/config"
	"finsignal/internal/db"
	"finsignal/internal/logging"
	"finsignal/internal/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "finsignal",
	Short: "Content governance service for the LinkedIn dashboard",
	Long: `finsignal governs the lifecycle of drafted posts, comments and connection
requests: it enforces engagement limits, gates posts on quality, plans
publish slots and keeps the topic mix balanced.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.PathFromEnv(), "Path to the YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, slotsCmd, rebalanceCmd)
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format), nil
}

// openStore connects and migrates, so every command that touches the
// database sees the current schema.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, *db.Store, error) {
	gdb, err := db.Open(cfg.Database.DSN, logging.ParseLevel(cfg.Logging.Level) == slog.LevelDebug)
	if err != nil {
		return nil, nil, err
	}
	seed := db.Seed{Strategy: cfg.Strategy, Topics: cfg.SeedTopics()}
	if err := db.Migrate(ctx, gdb, seed, log.With("component", "db")); err != nil {
		return nil, nil, err
	}
	return gdb, db.NewStore(gdb), nil
}

func closeDB(gdb *gorm.DB, log *slog.Logger) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", "error", err)
	}
}

const strategyCacheTTL = 30 * time.Second

func newStrategyService(store *db.Store, cfg *config.Config, log *slog.Logger) (*services.StrategyService, error) {
	return services.NewStrategyService(store, cfg.Strategy, strategyCacheTTL, log.With("component", "strategy"))
}
