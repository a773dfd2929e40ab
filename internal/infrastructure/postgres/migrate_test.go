package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbebidas(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		b, err := migrationsFS.ReadFile(f)
		require.NoError(t, err)
		body := string(b)
		assert.Contains(t, body, "-- +goose Up", f)
		assert.Contains(t, body, "-- +goose Down", f)
	}

	b, _ := migrationsFS.ReadFile("migrations/00001_init.sql")
	assert.True(t, strings.Contains(string(b), "UNIQUE (transaction_id, product_id)"),
		"un movimiento por producto y transacción")
}
