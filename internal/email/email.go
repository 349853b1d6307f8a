package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/Domenick1991/restobooking/internal/kafka"
	"github.com/Domenick1991/restobooking/internal/token"
)

// Sender turns booking notifications into guest emails. Links are derived
// on the fly: re-sending a notification yields the same URLs the guest
// already has.
type Sender struct {
	issuer *token.Issuer
}

func NewSender(issuer *token.Issuer) *Sender {
	return &Sender{issuer: issuer}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	links, err := s.linksFor(event)
	if err != nil {
		return fmt.Errorf("build links for booking %d: %w", event.BookingID, err)
	}

	fmt.Printf("send email to %s about %s for booking %d (restaurant %d)\n",
		event.GuestEmail, event.Type, event.BookingID, event.RestaurantID)
	for name, u := range links {
		fmt.Printf("  %s: %s\n", name, u)
	}
	return nil
}

// linksFor picks the actions the guest should see for this notification.
func (s *Sender) linksFor(event kafka.BookingEvent) (map[string]string, error) {
	b := &domain.Booking{
		ID:           event.BookingID,
		TenantID:     event.TenantID,
		RestaurantID: event.RestaurantID,
		AmountCents:  event.AmountCents,
		Currency:     event.Currency,
	}

	var actions []token.Action
	switch event.Type {
	case "booking_created", "payment_reminder", "payment_failed":
		actions = []token.Action{token.ActionView, token.ActionPayment}
	case "booking_confirmed":
		actions = []token.Action{token.ActionView, token.ActionManage}
	case "booking_cancelled":
		actions = []token.Action{token.ActionView}
	default:
		actions = []token.Action{token.ActionView}
	}

	links := make(map[string]string, len(actions))
	for _, action := range actions {
		u, err := s.issuer.ActionURL(b, action)
		if err != nil {
			return nil, err
		}
		links[string(action)] = u
	}
	return links, nil
}
