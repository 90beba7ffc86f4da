package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finsignal/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres. SQL is only logged when debug is set.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return gdb, nil
}

// Seed is the initial data written by Migrate into empty tables.
type Seed struct {
	Strategy models.StrategyConfig
	Topics   []models.Topic
}

// Migrate creates or updates the schema, seeds the strategy and topics when
// they are empty and rewrites legacy status values.
func Migrate(ctx context.Context, gdb *gorm.DB, seed Seed, log *slog.Logger) error {
	gdb = gdb.WithContext(ctx)
	err := gdb.AutoMigrate(
		&models.Post{},
		&models.Comment{},
		&models.ConnectionRequest{},
		&models.Influencer{},
		&models.Feed{},
		&models.Topic{},
		&models.StrategyConfig{},
		&models.TransitionLog{},
		&models.FlaggedItem{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database migration completed")

	if err := seedStrategy(gdb, seed.Strategy, log); err != nil {
		return err
	}
	if err := seedTopics(gdb, seed.Topics, log); err != nil {
		return err
	}

	n, err := NormalizeLegacyStatuses(ctx, gdb)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info("legacy statuses normalised", "rows", n)
	}
	return nil
}

func seedStrategy(gdb *gorm.DB, cfg models.StrategyConfig, log *slog.Logger) error {
	var count int64
	if err := gdb.Model(&models.StrategyConfig{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count strategy: %w", err)
	}
	if count > 0 {
		log.Debug("strategy already seeded, skipping")
		return nil
	}
	cfg.ID = strategyRowID
	if err := gdb.Create(&cfg).Error; err != nil {
		return fmt.Errorf("seed strategy: %w", err)
	}
	log.Info("strategy seeded with defaults")
	return nil
}

func seedTopics(gdb *gorm.DB, topics []models.Topic, log *slog.Logger) error {
	var count int64
	if err := gdb.Model(&models.Topic{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count topics: %w", err)
	}
	if count > 0 || len(topics) == 0 {
		return nil
	}
	if err := gdb.Create(&topics).Error; err != nil {
		return fmt.Errorf("seed topics: %w", err)
	}
	log.Info("topics seeded", "count", len(topics))
	return nil
}

// NormalizeLegacyStatuses rewrites status values left by earlier
// iterations of the pipeline to the canonical set.
func NormalizeLegacyStatuses(ctx context.Context, gdb *gorm.DB) (int64, error) {
	var total int64
	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for legacy, canonical := range models.LegacyPostStatuses() {
			res := tx.Model(&models.Post{}).Where("lower(status) = ?", legacy).
				Updates(map[string]any{"status": canonical, "version": gorm.Expr("version + 1")})
			if res.Error != nil {
				return fmt.Errorf("normalise post status %s: %w", legacy, res.Error)
			}
			total += res.RowsAffected
		}
		for legacy, canonical := range models.LegacyCommentStatuses() {
			res := tx.Model(&models.Comment{}).Where("lower(status) = ?", legacy).
				Updates(map[string]any{"status": canonical, "version": gorm.Expr("version + 1")})
			if res.Error != nil {
				return fmt.Errorf("normalise comment status %s: %w", legacy, res.Error)
			}
			total += res.RowsAffected
		}
		for legacy, canonical := range models.LegacyConnectionStatuses() {
			res := tx.Model(&models.ConnectionRequest{}).Where("lower(status) = ?", legacy).
				Updates(map[string]any{"status": canonical, "version": gorm.Expr("version + 1")})
			if res.Error != nil {
				return fmt.Errorf("normalise connection status %s: %w", legacy, res.Error)
			}
			total += res.RowsAffected
		}
		return nil
	})
	return total, err
}
