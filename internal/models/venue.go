package models

import "time"

// Venue is a cricket park that can be booked by the hour.
type Venue struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Address         string     `json:"address"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	ZipCode         string     `json:"zip_code"`
	ContactNumber   string     `json:"contact_number"`
	Email           string     `json:"email"`
	PricePerHour    int64      `json:"price_per_hour"` // cents
	NumberOfPitches int        `json:"number_of_pitches"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

type ParkManager struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	VenueID      int64     `json:"venue_id"`
	AssignedDate time.Time `json:"assigned_date"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
