package service

import (
	"fmt"

	"cricketpark/internal/domain"
	"cricketpark/internal/models"
)

var bookingTransitions = map[string][]string{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
}

var paymentTransitions = map[string][]string{
	models.PaymentPending: {models.PaymentPaid, models.PaymentFailed},
	models.PaymentPaid:    {models.PaymentRefunded},
}

func checkTransition(table map[string][]string, from, to string) error {
	for _, next := range table[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	return checkTransition(bookingTransitions, from, to) == nil
}
