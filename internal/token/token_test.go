package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyring(t *testing.T) *Keyring {
	t.Helper()
	k, err := NewKeyring("k1", map[string][]byte{"k1": []byte("test-secret")})
	require.NoError(t, err)
	return k
}

func TestNewKeyring_Validation(t *testing.T) {
	_, err := NewKeyring("k1", nil)
	assert.Error(t, err)

	_, err = NewKeyring("missing", map[string][]byte{"k1": []byte("s")})
	assert.Error(t, err)

	_, err = NewKeyring("k1", map[string][]byte{"k1": nil})
	assert.Error(t, err)
}

func TestKeyring_DeriveVerify_RoundTrip(t *testing.T) {
	k := testKeyring(t)

	tuples := []struct {
		booking, tenant, restaurant int64
		action                      Action
	}{
		{106, 3, 7, ActionPayment},
		{1, 1, 1, ActionView},
		{9999999, 42, 17, ActionManage},
		{5, 2, 3, ActionCancel},
	}
	for _, tc := range tuples {
		digest := k.Derive(tc.booking, tc.tenant, tc.restaurant, tc.action)
		assert.Len(t, digest, 64)
		assert.True(t, k.Verify(digest, tc.booking, tc.tenant, tc.restaurant, tc.action))
	}
}

func TestKeyring_Derive_Deterministic(t *testing.T) {
	k := testKeyring(t)
	assert.Equal(t,
		k.Derive(106, 3, 7, ActionManage),
		k.Derive(106, 3, 7, ActionManage),
	)
}

func TestKeyring_Verify_TamperedField(t *testing.T) {
	k := testKeyring(t)
	digest := k.Derive(106, 3, 7, ActionManage)

	assert.False(t, k.Verify(digest, 107, 3, 7, ActionManage), "booking id changed")
	assert.False(t, k.Verify(digest, 106, 4, 7, ActionManage), "tenant id changed")
	assert.False(t, k.Verify(digest, 106, 3, 8, ActionManage), "restaurant id changed")
	assert.False(t, k.Verify(digest, 106, 3, 7, ActionCancel), "action changed")
}

func TestKeyring_Verify_ActionScoped(t *testing.T) {
	k := testKeyring(t)

	// A payment digest must never satisfy a cancel check for the same booking.
	payment := k.Derive(106, 3, 7, ActionPayment)
	assert.True(t, k.Verify(payment, 106, 3, 7, ActionPayment))
	assert.False(t, k.Verify(payment, 106, 3, 7, ActionCancel))
	assert.False(t, k.Verify(payment, 106, 3, 7, ActionView))
}

func TestKeyring_Verify_FieldBoundaryShift(t *testing.T) {
	k := testKeyring(t)

	// "123|45|6" and "1234|5|6" must not collide.
	a := k.Derive(123, 45, 6, ActionManage)
	assert.False(t, k.Verify(a, 1234, 5, 6, ActionManage))
}

func TestKeyring_Verify_Malformed(t *testing.T) {
	k := testKeyring(t)

	for _, candidate := range []string{
		"",
		"not-hex",
		"abcd",  // too short
		"zz" + k.Derive(1, 1, 1, ActionView)[2:], // invalid hex chars
		k.Derive(1, 1, 1, ActionView) + "ff",     // too long
	} {
		assert.False(t, k.Verify(candidate, 1, 1, 1, ActionView))
	}
}

func TestKeyring_Rotation_OldKeyStillVerifies(t *testing.T) {
	old, err := NewKeyring("k1", map[string][]byte{"k1": []byte("old-secret")})
	require.NoError(t, err)
	digest := old.Derive(106, 3, 7, ActionView)

	// Rotated ring: new active key, old key retained for the transition window.
	rotated, err := NewKeyring("k2", map[string][]byte{
		"k1": []byte("old-secret"),
		"k2": []byte("new-secret"),
	})
	require.NoError(t, err)

	assert.True(t, rotated.Verify(digest, 106, 3, 7, ActionView))
	assert.NotEqual(t, digest, rotated.Derive(106, 3, 7, ActionView))

	// Ring without the old key: previously issued links are invalidated.
	dropped, err := NewKeyring("k2", map[string][]byte{"k2": []byte("new-secret")})
	require.NoError(t, err)
	assert.False(t, dropped.Verify(digest, 106, 3, 7, ActionView))
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{"view", "manage", "cancel", "payment"} {
		action, err := ParseAction(valid)
		assert.NoError(t, err)
		assert.Equal(t, Action(valid), action)
	}

	_, err := ParseAction("refund")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = ParseAction("")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
