package domain

import "time"

// Payment event types as delivered by the processor.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// PaymentEvent is one notification from the payment processor. EventID is
// processor-assigned, globally unique and the deduplication key.
type PaymentEvent struct {
	EventID          string
	Type             string
	PaymentIntentRef string
	AmountCents      int64
	Currency         string
	BookingID        int64
	TenantID         int64
	RestaurantID     int64
	ReceivedAt       time.Time
}

type InvoiceStatus string

const (
	InvoiceStatusPaid     InvoiceStatus = "PAID"
	InvoiceStatusRefunded InvoiceStatus = "REFUNDED"
)

// Invoice maps one confirmed payment to a billing document. At most one paid
// invoice exists per (BookingID, PaymentIntentRef).
type Invoice struct {
	InvoiceNumber    string
	BookingID        int64
	PaymentIntentRef string
	AmountCents      int64
	Currency         string
	Status           InvoiceStatus
	PaidAt           time.Time
	CreatedAt        time.Time
}
