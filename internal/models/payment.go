package models

import "time"

type Payment struct {
	ID            int64      `json:"id"`
	BookingID     int64      `json:"booking_id"`
	Amount        int64      `json:"amount"` // cents
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	IsActive      bool       `json:"is_active"`
}
