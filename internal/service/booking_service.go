package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cricketpark/internal/database"
	"cricketpark/internal/domain"
	"cricketpark/internal/events"
	"cricketpark/internal/metrics"
	"cricketpark/internal/models"

	"github.com/rs/zerolog"
)

// CreateBookingRequest carries what a caller supplies for a new booking.
// Price, status and timestamps are always derived by the service.
type CreateBookingRequest struct {
	UserID    string
	VenueID   int64
	Date      time.Time
	StartTime models.TimeOfDay
	EndTime   models.TimeOfDay
}

type BookingService struct {
	repo     domain.BookingStore
	venues   domain.VenueDirectory
	eventBus domain.EventPublisher
	outbox   domain.OutboxWriter
	logger   *zerolog.Logger

	limiter   domain.RateLimiter
	rateLimit int

	now        func() time.Time
	venueLocks sync.Map // venue id -> *sync.Mutex
}

func NewBookingService(repo domain.BookingStore, venues domain.VenueDirectory, eventBus domain.EventPublisher, outbox domain.OutboxWriter, logger *zerolog.Logger) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:     repo,
		venues:   venues,
		eventBus: eventBus,
		outbox:   outbox,
		logger:   logger,
		now:      time.Now,
	}
}

// SetRateLimit caps booking creation at perMinute per user. A nil limiter or non-positive limit disables it.
func (s *BookingService) SetRateLimit(limiter domain.RateLimiter, perMinute int) {
	s.limiter = limiter
	s.rateLimit = perMinute
}

func (s *BookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	bookings, err := s.repo.ListActiveBookings(ctx)
	if err != nil {
		return nil, s.unexpected(err, "list_bookings", 0)
	}
	return bookings, nil
}

func (s *BookingService) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	return s.getActive(ctx, id, "get_booking")
}

func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings, err := s.repo.ListActiveBookingsByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "list_user_bookings").Str("user_id", userID).Msg("storage error")
		return nil, err
	}
	return bookings, nil
}

// IsSlotAvailable reports whether [start, end) on date is free at the venue.
func (s *BookingService) IsSlotAvailable(ctx context.Context, venueID int64, date time.Time, start, end models.TimeOfDay) (bool, error) {
	if err := validateSlot(date, start, end); err != nil {
		return false, err
	}
	existing, err := s.repo.ListActiveBookingsForDay(ctx, venueID, models.DateOnly(date))
	if err != nil {
		return false, s.unexpected(err, "check_availability", 0)
	}
	return SlotAvailable(existing, venueID, date, start, end), nil
}

func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	defer metrics.ObserveCreate(time.Now())

	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if err := s.checkRateLimit(ctx, req.UserID); err != nil {
		return nil, err
	}

	venue, err := s.venues.GetVenue(ctx, req.VenueID)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "create_booking").Int64("venue_id", req.VenueID).Msg("venue lookup failed")
		return nil, err
	}
	if venue == nil || !venue.IsActive {
		return nil, fmt.Errorf("%w: venue %d", domain.ErrNotFound, req.VenueID)
	}
	if err := validateSlot(req.Date, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	date := models.DateOnly(req.Date)

	unlock := s.lockVenue(venue.ID)
	defer unlock()

	existing, err := s.repo.ListActiveBookingsForDay(ctx, venue.ID, date)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "create_booking").Int64("venue_id", venue.ID).Msg("storage error")
		return nil, err
	}
	if !SlotAvailable(existing, venue.ID, date, req.StartTime, req.EndTime) {
		metrics.IncBookingConflict()
		return nil, domain.ErrSlotNotAvailable
	}

	booking := &models.Booking{
		UserID:      req.UserID,
		VenueID:     venue.ID,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		TotalAmount: Price(int(req.EndTime-req.StartTime), venue.PricePerHour),
		Status:      models.StatusPending,
		CreatedAt:   s.now().UTC(),
		IsActive:    true,
	}

	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			// another process sharing the database won the slot
			metrics.IncBookingConflict()
			return nil, domain.ErrSlotNotAvailable
		}
		s.logger.Error().Err(err).Str("op", "create_booking").Int64("venue_id", venue.ID).Str("user_id", req.UserID).Msg("storage error")
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("venue_id", booking.VenueID).
		Str("user_id", booking.UserID).
		Str("slot", booking.StartTime.String()+"-"+booking.EndTime.String()).
		Msg("booking created")

	s.publishEvent(ctx, events.EventBookingCreated, booking, "")
	return booking, nil
}

// Update moves a booking to status. The slot is not re-checked.
func (s *BookingService) Update(ctx context.Context, id int64, status string) (*models.Booking, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsBookingStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	booking, err := s.getActive(ctx, id, "update_booking")
	if err != nil {
		return nil, err
	}

	prev := booking.Status
	if err := checkTransition(bookingTransitions, prev, status); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	booking.Status = status
	booking.UpdatedAt = &now
	if err := s.repo.UpdateBooking(ctx, booking); err != nil {
		return nil, s.unexpected(err, "update_booking", id)
	}

	metrics.IncStatusChange(prev, status)
	if eventType, ok := events.ForStatus(status); ok {
		s.publishEvent(ctx, eventType, booking, prev)
	}
	return booking, nil
}

func (s *BookingService) Confirm(ctx context.Context, id int64) (*models.Booking, error) {
	return s.Update(ctx, id, models.StatusConfirmed)
}

func (s *BookingService) Cancel(ctx context.Context, id int64) (*models.Booking, error) {
	return s.Update(ctx, id, models.StatusCancelled)
}

func (s *BookingService) Complete(ctx context.Context, id int64) (*models.Booking, error) {
	return s.Update(ctx, id, models.StatusCompleted)
}

// Delete soft-deletes a booking. The row stays in storage with is_active cleared.
func (s *BookingService) Delete(ctx context.Context, id int64) error {
	booking, err := s.getActive(ctx, id, "delete_booking")
	if err != nil {
		return err
	}

	now := s.now().UTC()
	booking.IsActive = false
	booking.UpdatedAt = &now
	if err := s.repo.UpdateBooking(ctx, booking); err != nil {
		return s.unexpected(err, "delete_booking", id)
	}

	s.publishEvent(ctx, events.EventBookingDeleted, booking, booking.Status)
	return nil
}

func (s *BookingService) getActive(ctx context.Context, id int64, op string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, s.unexpected(err, op, id)
	}
	if booking == nil || !booking.IsActive {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return booking, nil
}

func (s *BookingService) lockVenue(venueID int64) func() {
	v, _ := s.venueLocks.LoadOrStore(venueID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *BookingService) checkRateLimit(ctx context.Context, userID string) error {
	if s.limiter == nil || s.rateLimit <= 0 {
		return nil
	}
	allowed, err := s.limiter.CheckRateLimit(ctx, "booking:"+userID, s.rateLimit, time.Minute)
	if err != nil {
		// fail open, the limiter is advisory
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("rate limit check failed")
		return nil
	}
	if !allowed {
		return fmt.Errorf("%w: booking limit of %d per minute reached", domain.ErrRateLimited, s.rateLimit)
	}
	return nil
}

// unexpected logs a collaborator failure and hands it back unchanged.
func (s *BookingService) unexpected(err error, op string, bookingID int64) error {
	s.logger.Error().Err(err).Str("op", op).Int64("booking_id", bookingID).Msg("storage error")
	return err
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, booking *models.Booking, prevStatus string) {
	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(eventType, events.NewBookingPayload(booking, prevStatus)); err != nil {
			s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
		}
	}
	if s.outbox != nil {
		if err := s.outbox.EnqueueEvent(ctx, eventType, booking, prevStatus); err != nil {
			metrics.IncOutboxEnqueueFailure()
			s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("outbox enqueue error")
		}
	}
}

func validateSlot(date time.Time, start, end models.TimeOfDay) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}
	if !start.Valid() || !end.Valid() {
		return fmt.Errorf("%w: time of day out of range", domain.ErrInvalidInput)
	}
	if start >= end {
		return fmt.Errorf("%w: start time must be before end time", domain.ErrInvalidInput)
	}
	return nil
}
