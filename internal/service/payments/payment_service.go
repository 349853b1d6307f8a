package payments

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/Domenick1991/restobooking/internal/ids"
	"github.com/Domenick1991/restobooking/internal/kafka"
	"github.com/Domenick1991/restobooking/internal/obs"
	"github.com/Domenick1991/restobooking/internal/repository"
)

// Outcome classifies how an inbound payment event was consumed. Every
// outcome means the sender must stop retrying; only an error return asks
// for redelivery.
type Outcome string

const (
	// OutcomeTransitioned: the booking moved (or its payment fields changed).
	OutcomeTransitioned Outcome = "transitioned"
	// OutcomeIgnored: the event was consumed without a state change.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeAlreadyProcessed: a duplicate delivery of an admitted event.
	OutcomeAlreadyProcessed Outcome = "already_processed"
	// OutcomeRejected: consumed but escalated to the alerts channel.
	OutcomeRejected Outcome = "rejected"
)

// Alert kinds on the ops channel.
const (
	AlertBookingNotFound    = "booking_not_found"
	AlertManualReview       = "manual_review"
	AlertIntegrityViolation = "integrity_violation"
)

// seenTTL bounds the redis duplicate fast path; the ledger covers replays
// beyond it.
const seenTTL = 48 * time.Hour

type PaymentUseCase interface {
	HandleEvent(ctx context.Context, event *domain.PaymentEvent) (Outcome, error)
}

type Cache interface {
	WasEventSeen(ctx context.Context, eventID string) (bool, error)
	MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) error
	InvalidateBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

type PaymentService struct {
	events             repository.PaymentEventRepository
	bookings           repository.BookingRepository
	invoices           repository.InvoiceRepository
	cache              Cache
	producer           Producer
	notificationsTopic string
	alertsTopic        string
	now                func() time.Time
}

func NewPaymentService(
	events repository.PaymentEventRepository,
	bookings repository.BookingRepository,
	invoices repository.InvoiceRepository,
	cache Cache,
	producer Producer,
	notificationsTopic, alertsTopic string,
) *PaymentService {
	return &PaymentService{
		events:             events,
		bookings:           bookings,
		invoices:           invoices,
		cache:              cache,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		alertsTopic:        alertsTopic,
		now:                time.Now,
	}
}

// HandleEvent admits the event through the ledger and applies it to the
// booking. Errors are returned only when nothing was durably recorded, so
// the webhook endpoint can answer retryable; every Outcome is final.
func (s *PaymentService) HandleEvent(ctx context.Context, event *domain.PaymentEvent) (Outcome, error) {
	if s.cache != nil {
		if seen, err := s.cache.WasEventSeen(ctx, event.EventID); err == nil && seen {
			obs.PaymentEventOutcomes.WithLabelValues(string(OutcomeAlreadyProcessed)).Inc()
			return OutcomeAlreadyProcessed, nil
		}
	}

	admitted, err := s.events.Admit(ctx, event)
	if err != nil {
		return "", err
	}
	if !admitted {
		log.Printf("event %s already admitted, skipping", event.EventID)
		return s.finish(ctx, event, OutcomeAlreadyProcessed), nil
	}

	booking, err := s.bookings.GetByRef(ctx, event.BookingID, event.TenantID, event.RestaurantID)
	if errors.Is(err, repository.ErrNotFound) {
		s.alert(ctx, event, AlertBookingNotFound, "payment event references unknown booking")
		return s.finish(ctx, event, OutcomeRejected), nil
	}
	if err != nil {
		return "", err
	}

	switch event.Type {
	case domain.EventPaymentSucceeded:
		outcome, err := s.applySucceeded(ctx, event, booking)
		if err != nil {
			return "", err
		}
		return s.finish(ctx, event, outcome), nil
	case domain.EventPaymentFailed:
		outcome, err := s.applyFailed(ctx, event, booking)
		if err != nil {
			return "", err
		}
		return s.finish(ctx, event, outcome), nil
	default:
		log.Printf("event %s has unhandled type %s", event.EventID, event.Type)
		return s.finish(ctx, event, OutcomeIgnored), nil
	}
}

func (s *PaymentService) applySucceeded(ctx context.Context, event *domain.PaymentEvent, booking *domain.Booking) (Outcome, error) {
	switch {
	case booking.Status == domain.BookingStatusWaitingPayment:
		confirmed, err := s.bookings.ConfirmPayment(ctx, event.BookingID, event.PaymentIntentRef, s.now())
		if errors.Is(err, repository.ErrNotFound) {
			// Lost a race with another transition; reload and reclassify.
			fresh, ferr := s.bookings.GetByRef(ctx, event.BookingID, event.TenantID, event.RestaurantID)
			if ferr != nil {
				return "", ferr
			}
			return s.applySucceeded(ctx, event, fresh)
		}
		if err != nil {
			return "", err
		}
		if err := s.recordInvoice(ctx, event, confirmed); err != nil {
			return "", err
		}
		s.invalidate(ctx, confirmed)
		s.notify(ctx, "booking_confirmed", confirmed, event)
		return OutcomeTransitioned, nil

	case booking.Status == domain.BookingStatusConfirmed &&
		booking.PaymentIntentRef != nil && *booking.PaymentIntentRef == event.PaymentIntentRef:
		// Only reachable if the ledger guarantee were bypassed; no new invoice.
		return OutcomeIgnored, nil

	case booking.Status == domain.BookingStatusCancelled:
		// Money arrived for a booking cancelled in the meantime. Keep the
		// payment reference for reconciliation but never silently confirm.
		if _, err := s.bookings.RecordPaymentForReview(ctx, event.BookingID, event.PaymentIntentRef, s.now()); err != nil {
			return "", err
		}
		s.invalidate(ctx, booking)
		s.alert(ctx, event, AlertManualReview, "payment received for cancelled booking")
		return OutcomeIgnored, nil

	default:
		// Any other combination would break the status/payment invariant.
		log.Printf("event %s cannot apply to booking %d in status %s", event.EventID, booking.ID, booking.Status)
		s.alert(ctx, event, AlertIntegrityViolation, "payment event conflicts with booking state "+string(booking.Status))
		return OutcomeRejected, nil
	}
}

// applyFailed retains the failed attempt only while the booking still waits
// for payment. Events arrive unordered: a stale failure from an earlier
// attempt must never downgrade a booking a later attempt already paid.
func (s *PaymentService) applyFailed(ctx context.Context, event *domain.PaymentEvent, booking *domain.Booking) (Outcome, error) {
	if booking.Status != domain.BookingStatusWaitingPayment {
		log.Printf("event %s: failure for booking %d in status %s retained nothing", event.EventID, booking.ID, booking.Status)
		return OutcomeIgnored, nil
	}

	failed, err := s.bookings.MarkPaymentFailed(ctx, event.BookingID)
	if errors.Is(err, repository.ErrNotFound) {
		// Lost a race with another transition; reload and reclassify.
		fresh, ferr := s.bookings.GetByRef(ctx, event.BookingID, event.TenantID, event.RestaurantID)
		if ferr != nil {
			return "", ferr
		}
		return s.applyFailed(ctx, event, fresh)
	}
	if err != nil {
		return "", err
	}

	s.invalidate(ctx, failed)
	s.notify(ctx, "payment_failed", failed, event)
	return OutcomeTransitioned, nil
}

func (s *PaymentService) recordInvoice(ctx context.Context, event *domain.PaymentEvent, booking *domain.Booking) error {
	invoice := &domain.Invoice{
		InvoiceNumber:    ids.NewInvoiceNumber(booking.TenantID, booking.RestaurantID, booking.ID),
		BookingID:        booking.ID,
		PaymentIntentRef: event.PaymentIntentRef,
		AmountCents:      event.AmountCents,
		Currency:         event.Currency,
		Status:           domain.InvoiceStatusPaid,
		PaidAt:           s.now(),
	}
	created, err := s.invoices.Record(ctx, invoice)
	if err != nil {
		return err
	}
	if !created {
		log.Printf("invoice for booking %d payment %s already recorded", booking.ID, event.PaymentIntentRef)
		return nil
	}
	obs.InvoicesCreated.Inc()
	return nil
}

// finish marks the duplicate fast path and records the outcome metric. Only
// called once the event is durably settled.
func (s *PaymentService) finish(ctx context.Context, event *domain.PaymentEvent, outcome Outcome) Outcome {
	obs.PaymentEventOutcomes.WithLabelValues(string(outcome)).Inc()
	if s.cache != nil {
		if err := s.cache.MarkEventSeen(ctx, event.EventID, seenTTL); err != nil {
			log.Printf("mark event %s seen: %v", event.EventID, err)
		}
	}
	return outcome
}

func (s *PaymentService) invalidate(ctx context.Context, booking *domain.Booking) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateBooking(ctx, booking.ID, booking.TenantID, booking.RestaurantID); err != nil {
		log.Printf("invalidate booking %d cache: %v", booking.ID, err)
	}
}

func (s *PaymentService) notify(ctx context.Context, eventType string, booking *domain.Booking, event *domain.PaymentEvent) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	msg := kafka.BookingEvent{
		Type:             eventType,
		BookingID:        booking.ID,
		TenantID:         booking.TenantID,
		RestaurantID:     booking.RestaurantID,
		GuestEmail:       booking.GuestEmail,
		Status:           string(booking.Status),
		PaymentIntentRef: event.PaymentIntentRef,
		AmountCents:      event.AmountCents,
		Currency:         event.Currency,
		OccurredAt:       s.now(),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, event.EventID, msg); err != nil {
		log.Printf("publish %s for booking %d: %v", eventType, booking.ID, err)
	}
}

func (s *PaymentService) alert(ctx context.Context, event *domain.PaymentEvent, kind, detail string) {
	if s.producer == nil || s.alertsTopic == "" {
		log.Printf("ALERT %s for event %s: %s", kind, event.EventID, detail)
		return
	}
	msg := kafka.AlertEvent{
		Kind:         kind,
		EventID:      event.EventID,
		BookingID:    event.BookingID,
		TenantID:     event.TenantID,
		RestaurantID: event.RestaurantID,
		Detail:       detail,
		OccurredAt:   s.now(),
	}
	if err := s.producer.PublishWithRetry(ctx, s.alertsTopic, event.EventID, msg, 3); err != nil {
		log.Printf("publish alert %s for event %s: %v", kind, event.EventID, err)
	}
}

var _ PaymentUseCase = (*PaymentService)(nil)
