package database

import (
	"context"
	"io"
	"testing"
	"time"

	"cricketpark/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	assert.NoError(t, err)
	db.Close() // every call below hits a closed pool

	ctx := context.Background()
	now := time.Now()

	t.Run("GetBooking", func(t *testing.T) {
		_, err := db.GetBooking(ctx, 1)
		assert.Error(t, err)
	})
	t.Run("ListActiveBookings", func(t *testing.T) {
		_, err := db.ListActiveBookings(ctx)
		assert.Error(t, err)
	})
	t.Run("ListActiveBookingsForDay", func(t *testing.T) {
		_, err := db.ListActiveBookingsForDay(ctx, 1, now)
		assert.Error(t, err)
	})
	t.Run("CreateBookingWithLock", func(t *testing.T) {
		err := db.CreateBookingWithLock(ctx, &models.Booking{StartTime: 1, EndTime: 2})
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrSlotTaken)
	})
	t.Run("UpdateBooking", func(t *testing.T) {
		assert.Error(t, db.UpdateBooking(ctx, &models.Booking{ID: 1}))
	})
	t.Run("GetVenue", func(t *testing.T) {
		_, err := db.GetVenue(ctx, 1)
		assert.Error(t, err)
	})
	t.Run("CreateUser", func(t *testing.T) {
		err := db.CreateUser(ctx, &models.User{ID: "x", Email: "x@y"})
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrDuplicateEmail)
	})
	t.Run("GetPendingOutboxEvents", func(t *testing.T) {
		_, err := db.GetPendingOutboxEvents(ctx, 1)
		assert.Error(t, err)
	})
}

func TestNewDB_BadPath(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewDB("/dev/null/nested/park.db", &logger)
	assert.Error(t, err)
}
