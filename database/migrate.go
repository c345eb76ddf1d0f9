package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"student-records/config"
	"student-records/models"
	"student-records/repository"
)

// OpenGORM открывает подключение gorm к той же базе
func OpenGORM(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	logger.Info("✅ Connected to PostgreSQL via GORM", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return db, nil
}

// Migrate создаёт или обновляет таблицы через AutoMigrate.
// Сначала независимые таблицы, потом зависимые.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("🔄 Starting database migration...")

	tables := []interface{}{
		&models.Group{},
		&models.Student{},
	}
	for _, table := range tables {
		if err := db.AutoMigrate(table); err != nil {
			logger.Error("❌ Error migrating table", zap.String("table", fmt.Sprintf("%T", table)), zap.Error(err))
			return err
		}
		logger.Info("✅ Created/Updated table", zap.String("table", fmt.Sprintf("%T", table)))
	}
	return nil
}

// SeedGroups создаёт группы из конфигурации; уже существующие пропускаются
func SeedGroups(ctx context.Context, store repository.Store, names []string, logger *zap.Logger) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	logger.Info("🌱 Seeding groups...", zap.Strings("groups", names))

	created := 0
	err := store.InTx(ctx, func(tx repository.Store) error {
		for _, name := range names {
			exists, err := tx.GroupExists(ctx, name)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			err = tx.InsertGroup(ctx, &models.Group{Name: name})
			if errors.Is(err, repository.ErrGroupExists) {
				continue
			}
			if err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		logger.Error("❌ Error seeding groups", zap.Error(err))
		return 0, err
	}

	logger.Info("✅ Groups seeded", zap.Int("created", created))
	return created, nil
}
