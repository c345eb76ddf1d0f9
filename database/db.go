package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // драйвер PostgreSQL
	"go.uber.org/zap"

	"student-records/config"
)

const (
	createGroupsTableSQL = `
    CREATE TABLE IF NOT EXISTS grupos (
        numeroGrupo SERIAL PRIMARY KEY,
        nombreGrupo VARCHAR(100) NOT NULL UNIQUE
    )`

	createStudentsTableSQL = `
    CREATE TABLE IF NOT EXISTS alumnos (
        nia SERIAL PRIMARY KEY,
        nombre VARCHAR(100) NOT NULL,
        apellidos VARCHAR(150) NOT NULL,
        genero CHAR(1) NOT NULL CHECK (genero IN ('M', 'F')),
        fechaNacimiento DATE NOT NULL,
        ciclo VARCHAR(50),
        curso VARCHAR(50),
        numeroGrupo INTEGER REFERENCES grupos(numeroGrupo)
    )`

	// Устанавливаем правильное значение для последовательности
	fixSequenceSQL = `
    SELECT setval(
        pg_get_serial_sequence($1, $2),
        COALESCE((SELECT MAX(%[2]s) FROM %[1]s), 0) + 1,
        false
    )`
)

// OpenSQL открывает пул sqlx и проверяет подключение
func OpenSQL(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("✅ Connected to PostgreSQL",
		zap.String("host", cfg.Host), zap.Int("port", cfg.Port), zap.String("db", cfg.Name))
	return db, nil
}

// EnsureSchema создаёт таблицы grupos и alumnos, если их нет
func EnsureSchema(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	for _, stmt := range []string{createGroupsTableSQL, createStudentsTableSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	for _, seq := range []struct{ table, column string }{
		{"grupos", "numerogrupo"},
		{"alumnos", "nia"},
	} {
		if err := fixSequence(ctx, db, seq.table, seq.column, logger); err != nil {
			logger.Warn("⚠️ Could not fix sequence", zap.String("table", seq.table), zap.Error(err))
		}
	}

	logger.Info("✅ Tables verified (grupos, alumnos)")
	return nil
}

func fixSequence(ctx context.Context, db *sqlx.DB, table, column string, logger *zap.Logger) error {
	var next int64
	query := fmt.Sprintf(fixSequenceSQL, table, column)
	if err := db.GetContext(ctx, &next, query, table, column); err != nil {
		return fmt.Errorf("fix sequence of %s.%s: %w", table, column, err)
	}
	logger.Debug("✅ Sequence fixed", zap.String("table", table), zap.Int64("next", next))
	return nil
}
