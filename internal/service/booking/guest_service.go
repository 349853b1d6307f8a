package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/Domenick1991/restobooking/internal/kafka"
	"github.com/Domenick1991/restobooking/internal/repository"
)

// GuestUseCase is the booking surface behind the capability token gate. The
// gate itself lives in the HTTP layer; by the time these run the caller has
// proven possession of a valid link for the action.
type GuestUseCase interface {
	ViewBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) (*domain.Booking, error)
	SendPaymentReminders(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	GetBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) (*domain.Booking, error)
	SetBooking(ctx context.Context, b *domain.Booking) error
	InvalidateBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type GuestService struct {
	bookings           repository.BookingRepository
	cache              Cache
	producer           Producer
	notificationsTopic string
	reminderAfter      time.Duration
	reminderBatch      int
}

type GuestServiceOption func(*GuestService)

func WithReminderPolicy(after time.Duration, batch int) GuestServiceOption {
	return func(s *GuestService) {
		s.reminderAfter = after
		s.reminderBatch = batch
	}
}

func NewGuestService(
	bookings repository.BookingRepository,
	cache Cache,
	producer Producer,
	notificationsTopic string,
	opts ...GuestServiceOption,
) *GuestService {
	service := &GuestService{
		bookings:           bookings,
		cache:              cache,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		reminderAfter:      30 * time.Minute,
		reminderBatch:      100,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *GuestService) ViewBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) (*domain.Booking, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetBooking(ctx, bookingID, tenantID, restaurantID); err == nil && cached != nil {
			return cached, nil
		}
	}

	booking, err := s.bookings.GetByRef(ctx, bookingID, tenantID, restaurantID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetBooking(ctx, booking)
	}
	return booking, nil
}

// CancelBooking is idempotent: cancelling an already-terminal booking
// returns it unchanged.
func (s *GuestService) CancelBooking(ctx context.Context, bookingID, tenantID, restaurantID int64) (*domain.Booking, error) {
	current, err := s.bookings.GetByRef(ctx, bookingID, tenantID, restaurantID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return current, nil
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		// Lost a race with another transition; the fresh row is the answer.
		return s.bookings.GetByRef(ctx, bookingID, tenantID, restaurantID)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateBooking(ctx, bookingID, tenantID, restaurantID)
	}
	s.publish(ctx, "booking_cancelled", cancelled)
	return cancelled, nil
}

// SendPaymentReminders re-publishes the payment link notification for
// bookings stuck in waiting_payment. Safe to run repeatedly: link issuance
// is deterministic, so the guest just gets the same URL again.
func (s *GuestService) SendPaymentReminders(ctx context.Context) ([]domain.Booking, error) {
	deadline := time.Now().Add(-s.reminderAfter)
	stuck, err := s.bookings.FindWaitingPaymentBefore(ctx, deadline, s.reminderBatch)
	if err != nil {
		return nil, err
	}
	for i := range stuck {
		s.publish(ctx, "payment_reminder", &stuck[i])
	}
	return stuck, nil
}

func (s *GuestService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:         eventType,
		BookingID:    booking.ID,
		TenantID:     booking.TenantID,
		RestaurantID: booking.RestaurantID,
		GuestEmail:   booking.GuestEmail,
		Status:       string(booking.Status),
		AmountCents:  booking.AmountCents,
		Currency:     booking.Currency,
		OccurredAt:   time.Now(),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, event.GuestEmail, event); err != nil {
		log.Printf("publish %s for booking %d: %v", eventType, booking.ID, err)
	}
}

var _ GuestUseCase = (*GuestService)(nil)
