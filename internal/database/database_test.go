package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := NewDatabase(ctx, "sqlite:///:memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.True(t, db.IsSQLite())
	assert.False(t, db.IsPostgres())
	assert.NotNil(t, db.Session(ctx))
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(context.Background(), "mysql://user@host/db")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}

func TestDatabase_ConfigurePool(t *testing.T) {
	ctx := context.Background()
	db, err := NewDatabase(ctx, "sqlite:///:memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.ConfigurePool(5, 2, 0))
}
