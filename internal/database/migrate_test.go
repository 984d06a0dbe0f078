package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data, err := fs.ReadFile(migrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "-- +goose Down")
	assert.Contains(t, string(data), "ticket_number_seq")
}

func TestEnsureDatabaseRejectsBadURL(t *testing.T) {
	assert.Error(t, ensureDatabase("postgres://user@localhost:5432/"))
	assert.Error(t, ensureDatabase("://bad"))
}
