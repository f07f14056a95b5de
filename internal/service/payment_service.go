package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cricketpark/internal/domain"
	"cricketpark/internal/metrics"
	"cricketpark/internal/models"

	"github.com/rs/zerolog"
)

type CreatePaymentRequest struct {
	BookingID int64  `json:"booking_id"`
	Amount    int64  `json:"amount"` // cents; zero charges the booking total
	Method    string `json:"method"`
}

type PaymentUpdate struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type PaymentService struct {
	store    domain.PaymentStore
	bookings domain.BookingStore
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(store domain.PaymentStore, bookings domain.BookingStore, logger *zerolog.Logger) *PaymentService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &PaymentService{store: store, bookings: bookings, logger: logger, now: time.Now}
}

func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.store.ListActivePayments(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "list_payments").Msg("storage error")
		return nil, err
	}
	return payments, nil
}

func (s *PaymentService) Get(ctx context.Context, id int64) (*models.Payment, error) {
	return s.getActive(ctx, id, "get_payment")
}

func (s *PaymentService) ListForBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	if _, err := s.activeBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListActivePaymentsByBooking(ctx, bookingID)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "list_booking_payments").Int64("booking_id", bookingID).Msg("storage error")
		return nil, err
	}
	return payments, nil
}

func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error) {
	if !models.IsPaymentMethod(req.Method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidInput, req.Method)
	}
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidInput)
	}

	booking, err := s.activeBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount == 0 {
		amount = booking.TotalAmount
	}

	payment := &models.Payment{
		BookingID: booking.ID,
		Amount:    amount,
		Method:    req.Method,
		Status:    models.PaymentPending,
		IsActive:  true,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		s.logger.Error().Err(err).Str("op", "create_payment").Int64("booking_id", booking.ID).Msg("storage error")
		return nil, err
	}

	metrics.IncPaymentCreated(payment.Method)
	s.logger.Info().Int64("payment_id", payment.ID).Int64("booking_id", booking.ID).Int64("amount", amount).Msg("payment created")
	return payment, nil
}

func (s *PaymentService) Update(ctx context.Context, id int64, upd PaymentUpdate) (*models.Payment, error) {
	upd.Status = strings.ToLower(strings.TrimSpace(upd.Status))
	if !models.IsPaymentStatus(upd.Status) {
		return nil, fmt.Errorf("%w: unknown payment status %q", domain.ErrInvalidInput, upd.Status)
	}
	payment, err := s.getActive(ctx, id, "update_payment")
	if err != nil {
		return nil, err
	}
	if err := checkTransition(paymentTransitions, payment.Status, upd.Status); err != nil {
		return nil, err
	}

	payment.Status = upd.Status
	if upd.TransactionID != "" {
		payment.TransactionID = upd.TransactionID
	}
	if err := s.save(ctx, payment, "update_payment"); err != nil {
		return nil, err
	}
	return payment, nil
}

// Delete soft-deletes the payment record.
func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	payment, err := s.getActive(ctx, id, "delete_payment")
	if err != nil {
		return err
	}
	payment.IsActive = false
	return s.save(ctx, payment, "delete_payment")
}

func (s *PaymentService) save(ctx context.Context, payment *models.Payment, op string) error {
	now := s.now().UTC()
	payment.UpdatedAt = &now
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		s.logger.Error().Err(err).Str("op", op).Int64("payment_id", payment.ID).Msg("storage error")
		return err
	}
	return nil
}

func (s *PaymentService) getActive(ctx context.Context, id int64, op string) (*models.Payment, error) {
	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("op", op).Int64("payment_id", id).Msg("storage error")
		return nil, err
	}
	if payment == nil || !payment.IsActive {
		return nil, fmt.Errorf("%w: payment %d", domain.ErrNotFound, id)
	}
	return payment, nil
}

func (s *PaymentService) activeBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "payment_booking_lookup").Int64("booking_id", id).Msg("storage error")
		return nil, err
	}
	if booking == nil || !booking.IsActive {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return booking, nil
}
