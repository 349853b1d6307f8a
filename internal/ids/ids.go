package ids

import (
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewInvoiceNumber composes a human-readable invoice number that cannot
// collide across tenants and restaurants sharing one system: the scoping ids
// plus a monotonic suffix.
func NewInvoiceNumber(tenantID, restaurantID, bookingID int64) string {
	return fmt.Sprintf("INV-%d-%d-%d-%s", tenantID, restaurantID, bookingID, New())
}
