package models

import "time"

type Booking struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	VenueID     int64      `json:"venue_id"`
	Date        time.Time  `json:"date"`
	StartTime   TimeOfDay  `json:"start_time"`
	EndTime     TimeOfDay  `json:"end_time"`
	TotalAmount int64      `json:"total_amount"` // cents
	Status      string     `json:"status"`       // pending, confirmed, cancelled, completed
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	Version     int64      `json:"version"`
}

// Duration returns the length of the booked slot.
func (b *Booking) Duration() time.Duration {
	return time.Duration(b.EndTime-b.StartTime) * time.Minute
}

// BlocksSlot reports whether the booking takes part in conflict checks.
func (b *Booking) BlocksSlot() bool {
	return b.IsActive && b.Status != StatusCancelled
}

// DateOnly truncates t to a UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
