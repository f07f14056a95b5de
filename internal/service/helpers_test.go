package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"cricketpark/internal/database"
	"cricketpark/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db       *database.DB
	venues   *VenueService
	bookings *BookingService
	outbox   *recordingOutbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupDB(t)
	venues := NewVenueService(db, nil, nil, testLogger())
	outbox := &recordingOutbox{}
	return &fixture{
		db:       db,
		venues:   venues,
		bookings: NewBookingService(db, venues, nil, outbox, testLogger()),
		outbox:   outbox,
	}
}

func (f *fixture) venue(t *testing.T, pricePerHour int64) *models.Venue {
	t.Helper()
	v, err := f.venues.Create(context.Background(), &models.Venue{Name: "Ground", PricePerHour: pricePerHour, NumberOfPitches: 1})
	require.NoError(t, err)
	return v
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hm(h, m int) models.TimeOfDay {
	return models.NewTimeOfDay(h, m)
}

type recordingOutbox struct {
	mu     sync.Mutex
	events []string
	prev   []string
	err    error
}

func (o *recordingOutbox) EnqueueEvent(_ context.Context, eventType string, _ *models.Booking, prevStatus string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, eventType)
	o.prev = append(o.prev, prevStatus)
	return o.err
}

func (o *recordingOutbox) PrevStatuses() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.prev...)
}

func (o *recordingOutbox) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingStore) ListActiveBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingStore) ListActiveBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingStore) ListActiveBookingsForDay(ctx context.Context, venueID int64, date time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, venueID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingStore) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingStore) UpdateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

type staticVenues map[int64]*models.Venue

func (s staticVenues) GetVenue(_ context.Context, id int64) (*models.Venue, error) {
	return s[id], nil
}
