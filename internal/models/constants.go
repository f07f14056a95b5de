package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

const (
	MethodCreditCard = "credit_card"
	MethodDebitCard  = "debit_card"
	MethodUPI        = "upi"
	MethodNetBanking = "net_banking"
)

const (
	RoleAdmin       = "admin"
	RoleParkManager = "park_manager"
	RoleUser        = "user"
)

const (
	OutboxPending   = "pending"
	OutboxRetry     = "retry"
	OutboxCompleted = "completed"
	OutboxFailed    = "failed"
)

const (
	// DateLayout is the storage and wire format of booking dates.
	DateLayout = "2006-01-02"

	// DefaultVenueCacheTTL is how long venue lookups stay cached, in seconds.
	DefaultVenueCacheTTL = 5 * 60

	// DefaultBookingRateLimit caps create attempts per user per minute.
	DefaultBookingRateLimit = 30

	// OutboxQueueSize is the capacity of the in-memory outbox queue.
	OutboxQueueSize = 128

	// DefaultOutboxBatchSize bounds a single outbox polling pass.
	DefaultOutboxBatchSize = 20
)

// IsBookingStatus reports whether s names a known booking status.
func IsBookingStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func IsPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func IsPaymentMethod(s string) bool {
	switch s {
	case MethodCreditCard, MethodDebitCard, MethodUPI, MethodNetBanking:
		return true
	}
	return false
}

func IsRole(s string) bool {
	switch s {
	case RoleAdmin, RoleParkManager, RoleUser:
		return true
	}
	return false
}
