package token

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/Domenick1991/restobooking/internal/domain"
)

// Issuer builds shareable guest URLs embedding a capability digest. Issuance
// is deterministic: re-sending a link for the same booking and action always
// produces the same URL.
type Issuer struct {
	keyring *Keyring
	baseURL string
}

func NewIssuer(keyring *Keyring, baseURL string) *Issuer {
	return &Issuer{keyring: keyring, baseURL: baseURL}
}

// ActionURL returns the link for one action on one booking. Payment links
// additionally carry amount and currency so the payment page can show and
// reconcile the expected charge without a lookup.
func (i *Issuer) ActionURL(b *domain.Booking, action Action) (string, error) {
	u, err := url.Parse(i.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("guest", "bookings", string(action))

	q := url.Values{}
	q.Set("booking_id", strconv.FormatInt(b.ID, 10))
	q.Set("tenant_id", strconv.FormatInt(b.TenantID, 10))
	q.Set("restaurant_id", strconv.FormatInt(b.RestaurantID, 10))
	q.Set("hash", i.keyring.Derive(b.ID, b.TenantID, b.RestaurantID, action))
	if action == ActionPayment {
		q.Set("amount", strconv.FormatInt(b.AmountCents, 10))
		q.Set("currency", b.Currency)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
