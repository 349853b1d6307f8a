package token

import "errors"

// ErrUnauthorized is deliberately detail-free: callers must not learn which
// field of the tuple failed.
var ErrUnauthorized = errors.New("unauthorized")

// Gate guards guest requests. It recomputes the expected digest for the
// required action and denies on any mismatch before booking data is touched.
type Gate struct {
	keyring *Keyring
}

func NewGate(keyring *Keyring) *Gate {
	return &Gate{keyring: keyring}
}

// Authorize returns nil only when the presented digest is valid for exactly
// the required action on exactly this booking tuple. A digest issued for a
// different action on the same booking is denied.
func (g *Gate) Authorize(presented string, bookingID, tenantID, restaurantID int64, required Action) error {
	if !g.keyring.Verify(presented, bookingID, tenantID, restaurantID, required) {
		return ErrUnauthorized
	}
	return nil
}
