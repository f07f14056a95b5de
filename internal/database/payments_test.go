package database

import (
	"context"
	"testing"
	"time"

	"cricketpark/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	venue := createTestVenue(t, db, "Oval", 5000)
	b := newTestBooking(venue.ID, "u1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), hm(10, 0), hm(11, 0))
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	p := &models.Payment{BookingID: b.ID, Amount: 5000, Method: models.MethodUPI, Status: models.PaymentPending, IsActive: true}
	require.NoError(t, db.CreatePayment(ctx, p))
	assert.NotZero(t, p.ID)

	p.Status = models.PaymentPaid
	p.TransactionID = "txn-42"
	require.NoError(t, db.UpdatePayment(ctx, p))

	got, err := db.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.PaymentPaid, got.Status)
	assert.Equal(t, "txn-42", got.TransactionID)
	require.NotNil(t, got.UpdatedAt)

	byBooking, err := db.ListActivePaymentsByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, byBooking, 1)

	got.IsActive = false
	require.NoError(t, db.UpdatePayment(ctx, got))
	all, err := db.ListActivePayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	missing, err := db.GetPayment(ctx, 777)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreatePayment_UnknownBooking(t *testing.T) {
	db := setupTestDB(t)
	err := db.CreatePayment(context.Background(), &models.Payment{BookingID: 31337, Amount: 1, Method: models.MethodUPI, Status: models.PaymentPending})
	assert.Error(t, err)
}
