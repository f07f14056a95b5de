package events

import (
	"encoding/json"
	"sync"
	"time"

	"cricketpark/internal/models"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventBookingDeleted   = "booking_deleted"
)

// ForStatus maps a booking status to the event emitted when a booking enters it.
func ForStatus(status string) (string, bool) {
	switch status {
	case models.StatusConfirmed:
		return EventBookingConfirmed, true
	case models.StatusCancelled:
		return EventBookingCancelled, true
	case models.StatusCompleted:
		return EventBookingCompleted, true
	}
	return "", false
}

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64  `json:"booking_id"`
	UserID      string `json:"user_id"`
	VenueID     int64  `json:"venue_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TotalAmount int64  `json:"total_amount"`
	Status      string `json:"status"`
	PrevStatus  string `json:"prev_status,omitempty"`
	Version     int64  `json:"version"`
}

// NewBookingPayload snapshots b for publishing.
func NewBookingPayload(b *models.Booking, prevStatus string) BookingEventPayload {
	return BookingEventPayload{
		BookingID:   b.ID,
		UserID:      b.UserID,
		VenueID:     b.VenueID,
		Date:        b.Date.Format(models.DateLayout),
		StartTime:   b.StartTime.String(),
		EndTime:     b.EndTime.String(),
		TotalAmount: b.TotalAmount,
		Status:      b.Status,
		PrevStatus:  prevStatus,
		Version:     b.Version,
	}
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type and returns the first handler error.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var firstErr error
	for _, handler := range handlers {
		// synchronous; every handler runs even if an earlier one failed
		if err := handler(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}
