package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"homesite/config/database/migrations"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "00001_init.sql")

	body, err := fs.ReadFile(migrations.Migrations, "00001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE OR REPLACE FUNCTION increment_views")
}

func TestMigrateRunsGooseUp(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	called := false
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		assert.Equal(t, ".", dir)
		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil))
	assert.True(t, called)
}

func TestMigratePropagatesError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("boom")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}

	assert.ErrorIs(t, Migrate(context.Background(), nil), boom)
}
