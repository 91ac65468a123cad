package database

import (
	"context"
	"database/sql"
	"time"

	"homesite/config"
	"homesite/config/database/migrations"
	"homesite/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Connect opens the Postgres pool and pings it, retrying a few times in case
// of temporary DNS or network blips. It exits the process if the database
// never answers.
func Connect(cfg *config.Config) *sql.DB {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Sugar.Fatalf("Failed to open database connection: %v", err)
	}

	for i := 0; i < connectAttempts; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", connectBackoff, err)
		time.Sleep(connectBackoff)
	}
	logger.Sugar.Fatal("Could not connect to database after retries. Check your network or database status.")
	return nil
}

// gooseUpContext is a seam for tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate brings the schema up to date with the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		logger.Sugar.Errorf("Failed to apply migrations: %v", err)
		return err
	}
	return nil
}
