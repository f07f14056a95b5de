package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cricketpark/internal/models"
)

const userColumns = `id, email, first_name, last_name, phone_number, role, is_active, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (db *DB) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE is_active = 1 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CreateUser inserts the user. A second user with the same email yields ErrDuplicateEmail.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `INSERT INTO users (id, email, first_name, last_name, phone_number, role, is_active, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Phone, user.Role, user.IsActive, createdAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = createdAt
	return nil
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	updatedAt := time.Now().UTC()
	if user.UpdatedAt != nil {
		updatedAt = *user.UpdatedAt
	}

	query := `UPDATE users SET first_name = ?, last_name = ?, phone_number = ?, role = ?, is_active = ?, updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Phone, user.Role, user.IsActive, updatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("user %s: %w", user.ID, sql.ErrNoRows)
	}

	user.UpdatedAt = &updatedAt
	return nil
}
