package service

import (
	"context"
	"testing"

	"cricketpark/internal/domain"
	"cricketpark/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.db, f.db, testLogger())
	ctx := context.Background()
	venue := f.venue(t, 5000)

	b, err := f.bookings.Create(ctx, CreateBookingRequest{UserID: "u", VenueID: venue.ID, Date: day(2024, 6, 1), StartTime: hm(10, 0), EndTime: hm(11, 30)})
	require.NoError(t, err)

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(ctx, CreatePaymentRequest{BookingID: b.ID, Method: "cash"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = svc.Create(ctx, CreatePaymentRequest{BookingID: b.ID, Method: models.MethodUPI, Amount: -5})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = svc.Create(ctx, CreatePaymentRequest{BookingID: 999, Method: models.MethodUPI})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	p, err := svc.Create(ctx, CreatePaymentRequest{BookingID: b.ID, Method: models.MethodCreditCard})
	require.NoError(t, err)
	assert.Equal(t, int64(7500), p.Amount, "defaults to the booking total")
	assert.Equal(t, models.PaymentPending, p.Status)

	partial, err := svc.Create(ctx, CreatePaymentRequest{BookingID: b.ID, Method: models.MethodUPI, Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), partial.Amount)

	paid, err := svc.Update(ctx, p.ID, PaymentUpdate{Status: models.PaymentPaid, TransactionID: "txn-1"})
	require.NoError(t, err)
	assert.Equal(t, "txn-1", paid.TransactionID)
	assert.NotNil(t, paid.UpdatedAt)

	_, err = svc.Update(ctx, p.ID, PaymentUpdate{Status: models.PaymentFailed})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = svc.Update(ctx, p.ID, PaymentUpdate{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	refunded, err := svc.Update(ctx, p.ID, PaymentUpdate{Status: " Refunded "})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, refunded.Status)
	assert.Equal(t, "txn-1", refunded.TransactionID, "kept when not resent")

	list, err := svc.ListForBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, partial.ID))
	_, err = svc.Get(ctx, partial.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, f.bookings.Delete(ctx, b.ID))
	_, err = svc.ListForBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
