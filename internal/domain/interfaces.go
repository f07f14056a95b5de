package domain

import (
	"context"
	"time"

	"cricketpark/internal/models"
)

// BookingStore persists bookings. Lookups return nil, nil when the row does not exist.
type BookingStore interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListActiveBookings(ctx context.Context) ([]models.Booking, error)
	ListActiveBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListActiveBookingsForDay(ctx context.Context, venueID int64, date time.Time) ([]models.Booking, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	UpdateBooking(ctx context.Context, booking *models.Booking) error
}

// VenueDirectory resolves venues for the booking core.
type VenueDirectory interface {
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
}

type VenueStore interface {
	VenueDirectory
	ListActiveVenues(ctx context.Context) ([]models.Venue, error)
	SearchActiveVenues(ctx context.Context, term string) ([]models.Venue, error)
	CreateVenue(ctx context.Context, venue *models.Venue) error
	UpdateVenue(ctx context.Context, venue *models.Venue) error
	AssignParkManager(ctx context.Context, manager *models.ParkManager) error
	ListParkManagers(ctx context.Context, venueID int64) ([]models.ParkManager, error)
}

type PaymentStore interface {
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	ListActivePayments(ctx context.Context) ([]models.Payment, error)
	ListActivePaymentsByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, payment *models.Payment) error
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListActiveUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
}

// VenueCache keeps hot venue records close to the booking path.
type VenueCache interface {
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	SetVenue(ctx context.Context, venue *models.Venue) error
	InvalidateVenue(ctx context.Context, id int64) error
	RateLimiter
}

// RateLimiter answers whether key may act again within window.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// OutboxWriter records booking events for delivery to external subscribers.
type OutboxWriter interface {
	EnqueueEvent(ctx context.Context, eventType string, booking *models.Booking, prevStatus string) error
}
