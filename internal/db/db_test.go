package db

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN(t *testing.T) {
	tests := map[string]string{
		"postgresql+asyncpg://u:p@h:5432/db": "postgresql://u:p@h:5432/db",
		"postgres+pgx://u@h/db":              "postgres://u@h/db",
		"postgresql+psycopg2://h/db":         "postgresql://h/db",
		"  postgres://h/db?sslmode=disable ": "postgres://h/db?sslmode=disable",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDSN(in), in)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(Migrations(), "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])

	body, err := fs.ReadFile(Migrations(), files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS birthdays")
}
