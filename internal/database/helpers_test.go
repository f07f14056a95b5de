package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"cricketpark/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func setupFileDB(t *testing.T, name string) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), name), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestVenue(t *testing.T, db *DB, name string, pricePerHour int64) *models.Venue {
	t.Helper()
	v := &models.Venue{Name: name, City: "Pune", PricePerHour: pricePerHour, NumberOfPitches: 2, IsActive: true}
	require.NoError(t, db.CreateVenue(context.Background(), v))
	return v
}

func newTestBooking(venueID int64, userID string, date time.Time, start, end models.TimeOfDay) *models.Booking {
	return &models.Booking{
		UserID:      userID,
		VenueID:     venueID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		TotalAmount: 5000,
		Status:      models.StatusPending,
		IsActive:    true,
	}
}

func hm(h, m int) models.TimeOfDay {
	return models.NewTimeOfDay(h, m)
}
