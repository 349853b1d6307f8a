package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/restobooking/internal/kafka"
	"github.com/Domenick1991/restobooking/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSender(t *testing.T) *Sender {
	t.Helper()
	keyring, err := token.NewKeyring("k1", map[string][]byte{"k1": []byte("test-secret")})
	require.NoError(t, err)
	return NewSender(token.NewIssuer(keyring, "https://book.example.com"))
}

func TestSender_LinksFor(t *testing.T) {
	sender := testSender(t)

	event := kafka.BookingEvent{
		Type:         "payment_reminder",
		BookingID:    42,
		TenantID:     3,
		RestaurantID: 7,
		GuestEmail:   "alice@example.com",
		AmountCents:  5000,
		Currency:     "eur",
	}

	links, err := sender.linksFor(event)
	require.NoError(t, err)

	assert.Contains(t, links["view"], "/guest/bookings/view")
	assert.Contains(t, links["payment"], "/guest/bookings/payment")
	assert.NotContains(t, links, "cancel")

	event.Type = "booking_confirmed"
	links, err = sender.linksFor(event)
	require.NoError(t, err)
	assert.Contains(t, links["manage"], "/guest/bookings/manage")
	assert.NotContains(t, links, "payment")
}

func TestSender_Send(t *testing.T) {
	sender := testSender(t)

	err := sender.Send(context.Background(), kafka.BookingEvent{
		Type:         "booking_cancelled",
		BookingID:    42,
		TenantID:     3,
		RestaurantID: 7,
		GuestEmail:   "alice@example.com",
	})
	assert.NoError(t, err)
}
