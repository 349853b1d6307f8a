package token

import (
	"net/url"
	"testing"

	"github.com/Domenick1991/restobooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_ActionURL(t *testing.T) {
	k := testKeyring(t)
	issuer := NewIssuer(k, "https://book.example.com")

	booking := &domain.Booking{
		ID:           106,
		TenantID:     3,
		RestaurantID: 7,
		AmountCents:  8000,
		Currency:     "eur",
	}

	link, err := issuer.ActionURL(booking, ActionManage)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/guest/bookings/manage", u.Path)

	q := u.Query()
	assert.Equal(t, "106", q.Get("booking_id"))
	assert.Equal(t, "3", q.Get("tenant_id"))
	assert.Equal(t, "7", q.Get("restaurant_id"))
	assert.True(t, k.Verify(q.Get("hash"), 106, 3, 7, ActionManage))
	assert.Empty(t, q.Get("amount"))
	assert.Empty(t, q.Get("currency"))
}

func TestIssuer_ActionURL_PaymentCarriesAmount(t *testing.T) {
	k := testKeyring(t)
	issuer := NewIssuer(k, "https://book.example.com")

	booking := &domain.Booking{
		ID:           106,
		TenantID:     3,
		RestaurantID: 7,
		AmountCents:  8000,
		Currency:     "eur",
	}

	link, err := issuer.ActionURL(booking, ActionPayment)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "8000", q.Get("amount"))
	assert.Equal(t, "eur", q.Get("currency"))
	assert.True(t, k.Verify(q.Get("hash"), 106, 3, 7, ActionPayment))
}

func TestIssuer_ActionURL_IdempotentIssuance(t *testing.T) {
	k := testKeyring(t)
	issuer := NewIssuer(k, "https://book.example.com")

	booking := &domain.Booking{ID: 106, TenantID: 3, RestaurantID: 7}

	first, err := issuer.ActionURL(booking, ActionCancel)
	require.NoError(t, err)
	second, err := issuer.ActionURL(booking, ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
