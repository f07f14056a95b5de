package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cricketpark/internal/models"
)

const bookingColumns = `id, user_id, venue_id, booking_date, start_minute, end_minute,
	total_amount, status, is_active, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		dateStr    string
		start, end int
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.VenueID, &dateStr, &start, &end,
		&b.TotalAmount, &b.Status, &b.IsActive, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	b.StartTime = models.TimeOfDay(start)
	b.EndTime = models.TimeOfDay(end)
	return &b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// GetBooking returns the booking regardless of its liveness flag, or nil when absent.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (db *DB) ListActiveBookings(ctx context.Context) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE is_active = 1 ORDER BY id`
	bookings, err := db.queryBookings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) ListActiveBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? AND is_active = 1 ORDER BY id`
	bookings, err := db.queryBookings(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for user %s: %w", userID, err)
	}
	return bookings, nil
}

// ListActiveBookingsForDay returns live bookings of any status on the venue and date.
func (db *DB) ListActiveBookingsForDay(ctx context.Context, venueID int64, date time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE venue_id = ? AND booking_date = ? AND is_active = 1
              ORDER BY start_minute`
	bookings, err := db.queryBookings(ctx, query, venueID, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for venue %d: %w", venueID, err)
	}
	return bookings, nil
}

// ListActiveBookingsByDateRange returns live bookings with from <= date <= to.
func (db *DB) ListActiveBookingsByDateRange(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE booking_date >= ? AND booking_date <= ? AND is_active = 1
              ORDER BY booking_date, venue_id, start_minute`
	bookings, err := db.queryBookings(ctx, query, from.Format(models.DateLayout), to.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	return bookings, nil
}

// CreateBookingWithLock inserts the booking only if no live, non-cancelled booking
// on the same venue and date overlaps [StartTime, EndTime). The check and the insert
// share one immediate transaction.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	dateStr := booking.Date.Format(models.DateLayout)

	var overlapping int
	queryCount := `SELECT COUNT(*) FROM bookings
                   WHERE venue_id = ? AND booking_date = ? AND is_active = 1 AND status != ?
                   AND start_minute < ? AND end_minute > ?`
	err = tx.QueryRowContext(ctx, queryCount,
		booking.VenueID, dateStr, models.StatusCancelled,
		int(booking.EndTime), int(booking.StartTime),
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check slot in tx: %w", err)
	}
	if overlapping > 0 {
		return ErrSlotTaken
	}

	createdAt := booking.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	queryInsert := `INSERT INTO bookings (
                user_id, venue_id, booking_date, start_minute, end_minute,
                total_amount, status, is_active, created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, 1)`
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.UserID,
		booking.VenueID,
		dateStr,
		int(booking.StartTime),
		int(booking.EndTime),
		booking.TotalAmount,
		booking.Status,
		booking.IsActive,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = createdAt
	booking.UpdatedAt = nil
	booking.Version = 1
	return nil
}

// UpdateBooking writes status, liveness and updated_at, guarded by the version the
// caller read. On success booking.Version is advanced.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	updatedAt := time.Now().UTC()
	if booking.UpdatedAt != nil {
		updatedAt = *booking.UpdatedAt
	}

	query := `UPDATE bookings SET status = ?, is_active = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query,
		booking.Status, booking.IsActive, updatedAt, booking.ID, booking.Version)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrConcurrentModification
	}

	booking.UpdatedAt = &updatedAt
	booking.Version++
	return nil
}
