package database

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"cricketpark/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := &models.User{ID: "u-1", Email: "bat@example.com", FirstName: "Ravi", Role: models.RoleUser, IsActive: true}
	require.NoError(t, db.CreateUser(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	dup := &models.User{ID: "u-2", Email: "bat@example.com", Role: models.RoleUser, IsActive: true}
	assert.ErrorIs(t, db.CreateUser(ctx, dup), ErrDuplicateEmail)

	got, err := db.GetUser(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ravi", got.FirstName)
	assert.Empty(t, got.Phone)

	got.Phone = "+91 98200 00000"
	got.LastName = "Shastri"
	require.NoError(t, db.UpdateUser(ctx, got))
	got, err = db.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "+91 98200 00000", got.Phone)
	assert.Equal(t, "Shastri", got.LastName)
	require.NotNil(t, got.UpdatedAt)

	got.Role = models.RoleParkManager
	got.IsActive = false
	require.NoError(t, db.UpdateUser(ctx, got))

	active, err := db.ListActiveUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	missing, err := db.GetUser(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = db.UpdateUser(ctx, &models.User{ID: "nope", Role: models.RoleUser})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUsersTableGainsPhoneColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'user',
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME
        )`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO users (id, email, created_at) VALUES ('u-old', 'old@example.com', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	logger := zerolog.New(io.Discard)
	db, err := NewDB(path, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	u, err := db.GetUser(context.Background(), "u-old")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Empty(t, u.Phone)
}
