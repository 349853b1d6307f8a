package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Action is the closed set of operations a capability link may grant on a
// single booking.
type Action string

const (
	ActionView    Action = "view"
	ActionManage  Action = "manage"
	ActionCancel  Action = "cancel"
	ActionPayment Action = "payment"
)

var ErrUnknownAction = errors.New("unknown action")

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionView, ActionManage, ActionCancel, ActionPayment:
		return Action(s), nil
	}
	return "", ErrUnknownAction
}

// Keyring derives and verifies capability digests. Digests are HMAC-SHA256
// over the (booking, tenant, restaurant, action) tuple; the "|" separator
// keeps distinct tuples from colliding through field-boundary shifts.
//
// The ring is versioned: new links are signed with the active key, while
// verification accepts every key still in the ring, so a rotation can keep
// previously mailed links valid for a transition window. Tokens carry no
// expiry; removing a key from the ring is the only revocation.
type Keyring struct {
	activeID string
	keys     map[string][]byte
}

func NewKeyring(activeID string, keys map[string][]byte) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, errors.New("keyring requires at least one key")
	}
	if _, ok := keys[activeID]; !ok {
		return nil, fmt.Errorf("active key %q not present in keyring", activeID)
	}
	for id, secret := range keys {
		if len(secret) == 0 {
			return nil, fmt.Errorf("key %q is empty", id)
		}
	}
	return &Keyring{activeID: activeID, keys: keys}, nil
}

// Derive computes the digest for the tuple using the active key. Identical
// inputs always yield the identical digest.
func (k *Keyring) Derive(bookingID, tenantID, restaurantID int64, action Action) string {
	return sign(k.keys[k.activeID], bookingID, tenantID, restaurantID, action)
}

// Verify recomputes the expected digest for every key in the ring and
// compares in constant time. Malformed candidates fail verification, they
// never error.
func (k *Keyring) Verify(candidate string, bookingID, tenantID, restaurantID int64, action Action) bool {
	presented, err := hex.DecodeString(candidate)
	if err != nil || len(presented) != sha256.Size {
		return false
	}
	for _, secret := range k.keys {
		expected := mac(secret, bookingID, tenantID, restaurantID, action)
		if hmac.Equal(presented, expected) {
			return true
		}
	}
	return false
}

func sign(secret []byte, bookingID, tenantID, restaurantID int64, action Action) string {
	return hex.EncodeToString(mac(secret, bookingID, tenantID, restaurantID, action))
}

func mac(secret []byte, bookingID, tenantID, restaurantID int64, action Action) []byte {
	h := hmac.New(sha256.New, secret)
	fmt.Fprintf(h, "%d|%d|%d|%s", bookingID, tenantID, restaurantID, action)
	return h.Sum(nil)
}
