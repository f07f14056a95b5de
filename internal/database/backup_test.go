package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cricketpark/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	db := setupFileDB(t, "source.db")
	venue := createTestVenue(t, db, "Oval", 5000)

	storagePath := filepath.Join(t.TempDir(), "backups")
	cfg := config.BackupConfig{Enabled: true, StoragePath: storagePath, RetentionDays: 1}
	logger := zerolog.Nop()
	s := NewBackupService(db, cfg, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(context.Background())
		require.NoError(t, err)

		snapshot, err := sql.Open("sqlite3", path)
		require.NoError(t, err)
		defer snapshot.Close()

		var name string
		require.NoError(t, snapshot.QueryRow(`SELECT name FROM venues WHERE id = ?`, venue.ID).Scan(&name))
		assert.Equal(t, "Oval", name)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		old := filepath.Join(storagePath, backupPrefix+"old.db")
		require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
		past := time.Now().AddDate(0, 0, -3)
		require.NoError(t, os.Chtimes(old, past, past))

		foreign := filepath.Join(storagePath, "keep.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(foreign, past, past))

		removed, err := s.CleanupOldBackups()
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		_, err = os.Stat(old)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(foreign)
		assert.NoError(t, err)
	})

	t.Run("DisabledStartReturns", func(t *testing.T) {
		disabled := NewBackupService(db, config.BackupConfig{}, nil)
		done := make(chan struct{})
		go func() {
			disabled.Start(context.Background())
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("disabled backup service should return immediately")
		}
	})

	t.Run("StartStopsOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		runner := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: storagePath, Schedule: "1h"}, nil)
		done := make(chan struct{})
		go func() {
			runner.Start(ctx)
			close(done)
		}()
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("backup service did not stop")
		}
	})
}
