package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cricketpark/internal/models"
)

const paymentColumns = `id, booking_id, amount, method, status, transaction_id, is_active, created_at, updated_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.Status, &p.TransactionID,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) queryPayments(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (db *DB) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	p, err := scanPayment(db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

func (db *DB) ListActivePayments(ctx context.Context) ([]models.Payment, error) {
	payments, err := db.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (db *DB) ListActivePaymentsByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	payments, err := db.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? AND is_active = 1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for booking %d: %w", bookingID, err)
	}
	return payments, nil
}

func (db *DB) CreatePayment(ctx context.Context, payment *models.Payment) error {
	createdAt := payment.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `INSERT INTO payments (booking_id, amount, method, status, transaction_id, is_active, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		payment.BookingID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.TransactionID,
		payment.IsActive,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	payment.ID = id
	payment.CreatedAt = createdAt
	return nil
}

func (db *DB) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	updatedAt := time.Now().UTC()
	if payment.UpdatedAt != nil {
		updatedAt = *payment.UpdatedAt
	}

	query := `UPDATE payments SET status = ?, transaction_id = ?, is_active = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		payment.Status, payment.TransactionID, payment.IsActive, updatedAt, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("payment %d: %w", payment.ID, sql.ErrNoRows)
	}

	payment.UpdatedAt = &updatedAt
	return nil
}
