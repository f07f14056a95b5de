package service

import (
	"time"

	"cricketpark/internal/models"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd models.TimeOfDay) bool {
	return aStart < bEnd && aEnd > bStart
}

// SlotAvailable checks a candidate slot against existing bookings. Bookings on other venues or
// days, soft-deleted rows and cancelled bookings never block.
func SlotAvailable(existing []models.Booking, venueID int64, date time.Time, start, end models.TimeOfDay) bool {
	day := models.DateOnly(date)
	for i := range existing {
		b := &existing[i]
		if b.VenueID != venueID || !models.DateOnly(b.Date).Equal(day) || !b.BlocksSlot() {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return false
		}
	}
	return true
}

// Price returns the charge in cents for minutes at pricePerHour cents, rounded half up.
func Price(minutes int, pricePerHour int64) int64 {
	return (int64(minutes)*pricePerHour + 30) / 60
}
