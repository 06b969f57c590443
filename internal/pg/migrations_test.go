package pg

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	"github.com/GlebRadaev/courierstats/migrations"
)

func TestRunMigrations_NoFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"README.md": &fstest.MapFile{Data: []byte("nothing to apply")},
	}

	err := RunMigrations(context.Background(), nil, fsys)
	assert.ErrorIs(t, err, ErrNoMigrations)
}

func TestRunMigrations_EmptyFS(t *testing.T) {
	err := RunMigrations(context.Background(), nil, fstest.MapFS{})
	assert.ErrorIs(t, err, ErrNoMigrations)
}

func TestEmbeddedMigrations(t *testing.T) {
	data, err := migrations.Migrations.ReadFile("00001_create_deliveries.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS deliveries")
}
