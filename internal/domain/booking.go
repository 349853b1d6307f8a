package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending        BookingStatus = "PENDING"
	BookingStatusWaitingPayment BookingStatus = "WAITING_PAYMENT"
	BookingStatusConfirmed      BookingStatus = "CONFIRMED"
	BookingStatusCancelled      BookingStatus = "CANCELLED"
	BookingStatusCompleted      BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentStatusNone     PaymentStatus = "NONE"
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsTerminal reports whether the reservation flow may still move the booking.
// A cancelled booking can still receive payment events; those are routed to
// manual review instead of a transition.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

type Booking struct {
	ID               int64
	TenantID         int64
	RestaurantID     int64
	GuestName        string
	GuestEmail       string
	PartySize        int
	StartsAt         time.Time
	Status           BookingStatus
	PaymentStatus    PaymentStatus
	PaymentIntentRef *string
	PaymentPaidAt    *time.Time
	AmountCents      int64
	Currency         string
	NeedsReview      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
