package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		assert.Len(t, id, 26)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewInvoiceNumber(t *testing.T) {
	n := NewInvoiceNumber(3, 7, 106)
	assert.True(t, strings.HasPrefix(n, "INV-3-7-106-"))
	assert.NotEqual(t, n, NewInvoiceNumber(3, 7, 106))
}
