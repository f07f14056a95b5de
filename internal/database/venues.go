package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cricketpark/internal/models"
)

const venueColumns = `id, name, address, city, state, zip_code, contact_number, email,
	price_per_hour, number_of_pitches, is_active, created_at, updated_at`

func scanVenue(row rowScanner) (*models.Venue, error) {
	var v models.Venue
	err := row.Scan(
		&v.ID, &v.Name, &v.Address, &v.City, &v.State, &v.ZipCode, &v.ContactNumber, &v.Email,
		&v.PricePerHour, &v.NumberOfPitches, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVenue returns the venue regardless of its liveness flag, or nil when absent.
func (db *DB) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	v, err := scanVenue(db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return v, nil
}

func (db *DB) ListActiveVenues(ctx context.Context) ([]models.Venue, error) {
	venues, err := db.queryVenues(ctx, `SELECT `+venueColumns+` FROM venues WHERE is_active = 1 ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	return venues, nil
}

// SearchActiveVenues returns live venues whose name, city or state contains term, ignoring ASCII case.
func (db *DB) SearchActiveVenues(ctx context.Context, term string) ([]models.Venue, error) {
	pattern := "%" + likeEscaper.Replace(term) + "%"
	query := `SELECT ` + venueColumns + ` FROM venues
              WHERE is_active = 1
              AND (name LIKE ? ESCAPE '\' OR city LIKE ? ESCAPE '\' OR state LIKE ? ESCAPE '\')
              ORDER BY name, id`
	venues, err := db.queryVenues(ctx, query, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search venues: %w", err)
	}
	return venues, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (db *DB) queryVenues(ctx context.Context, query string, args ...any) ([]models.Venue, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	venues := make([]models.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

func (db *DB) CreateVenue(ctx context.Context, venue *models.Venue) error {
	createdAt := venue.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `INSERT INTO venues (
                name, address, city, state, zip_code, contact_number, email,
                price_per_hour, number_of_pitches, is_active, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		venue.Name,
		venue.Address,
		venue.City,
		venue.State,
		venue.ZipCode,
		venue.ContactNumber,
		venue.Email,
		venue.PricePerHour,
		venue.NumberOfPitches,
		venue.IsActive,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	venue.ID = id
	venue.CreatedAt = createdAt
	return nil
}

func (db *DB) UpdateVenue(ctx context.Context, venue *models.Venue) error {
	updatedAt := time.Now().UTC()
	if venue.UpdatedAt != nil {
		updatedAt = *venue.UpdatedAt
	}

	query := `UPDATE venues SET
                name = ?, address = ?, city = ?, state = ?, zip_code = ?, contact_number = ?, email = ?,
                price_per_hour = ?, number_of_pitches = ?, is_active = ?, updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		venue.Name, venue.Address, venue.City, venue.State, venue.ZipCode, venue.ContactNumber, venue.Email,
		venue.PricePerHour, venue.NumberOfPitches, venue.IsActive, updatedAt, venue.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("venue %d: %w", venue.ID, sql.ErrNoRows)
	}

	venue.UpdatedAt = &updatedAt
	return nil
}

// AssignParkManager links a user to a venue, re-activating an earlier assignment.
func (db *DB) AssignParkManager(ctx context.Context, manager *models.ParkManager) error {
	now := time.Now().UTC()
	if manager.AssignedDate.IsZero() {
		manager.AssignedDate = now
	}

	query := `INSERT INTO park_managers (user_id, venue_id, assigned_date, is_active, created_at)
              VALUES (?, ?, ?, 1, ?)
              ON CONFLICT(user_id, venue_id) DO UPDATE SET
                  is_active = 1,
                  assigned_date = excluded.assigned_date`
	if _, err := db.ExecContext(ctx, query, manager.UserID, manager.VenueID, manager.AssignedDate, now); err != nil {
		return fmt.Errorf("failed to assign park manager: %w", err)
	}

	err := db.QueryRowContext(ctx,
		`SELECT id, created_at FROM park_managers WHERE user_id = ? AND venue_id = ?`,
		manager.UserID, manager.VenueID,
	).Scan(&manager.ID, &manager.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read park manager: %w", err)
	}
	manager.IsActive = true
	return nil
}

func (db *DB) ListParkManagers(ctx context.Context, venueID int64) ([]models.ParkManager, error) {
	query := `SELECT id, user_id, venue_id, assigned_date, is_active, created_at
              FROM park_managers WHERE venue_id = ? AND is_active = 1 ORDER BY id`
	rows, err := db.QueryContext(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list park managers: %w", err)
	}
	defer rows.Close()

	managers := make([]models.ParkManager, 0)
	for rows.Next() {
		var m models.ParkManager
		if err := rows.Scan(&m.ID, &m.UserID, &m.VenueID, &m.AssignedDate, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan park manager: %w", err)
		}
		managers = append(managers, m)
	}
	return managers, rows.Err()
}
