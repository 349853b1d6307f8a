package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Envelope signatures follow the processor's scheme: a header of the form
//
//	t=<unix seconds>,v1=<hex hmac-sha256 of "<t>.<body>">
//
// signed with the processor-issued endpoint secret. This is unrelated to the
// guest capability scheme; it authenticates the processor, not a guest.

var (
	ErrBadSignatureHeader = errors.New("malformed signature header")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrSignatureExpired   = errors.New("signature timestamp outside tolerance")
)

// DefaultTolerance bounds replay of captured webhook deliveries. The ledger
// dedupes replays anyway; the tolerance just rejects stale traffic early.
const DefaultTolerance = 5 * time.Minute

type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret []byte, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance, now: time.Now}
}

// Verify checks the signature header against the raw request body.
func (v *Verifier) Verify(body []byte, header string) error {
	ts, sig, err := parseHeader(header)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign produces a header for the given body, used by tests and the local
// simulator to play the processor's role.
func Sign(secret, body []byte, at time.Time) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func parseHeader(header string) (int64, []byte, error) {
	var ts int64
	var sig []byte
	for part := range strings.SplitSeq(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, ErrBadSignatureHeader
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrBadSignatureHeader
			}
			ts = parsed
		case "v1":
			decoded, err := hex.DecodeString(value)
			if err != nil {
				return 0, nil, ErrBadSignatureHeader
			}
			sig = decoded
		}
	}
	if ts == 0 || len(sig) != sha256.Size {
		return 0, nil, ErrBadSignatureHeader
	}
	return ts, sig, nil
}
