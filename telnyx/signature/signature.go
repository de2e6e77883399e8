package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcelsud/sms-inbox/telnyx"
)

const (
	// DefaultTolerance is how far in the past a timestamp may be (Telnyx SDK default)
	DefaultTolerance = 300 * time.Second

	// DefaultMaxSkew is the clock-skew allowance for timestamps in the future
	DefaultMaxSkew = 60 * time.Second

	// SignatureBytes is the exact length of an Ed25519 signature
	SignatureBytes = 64

	// PublicKeyBytes is the exact length of an Ed25519 public key
	PublicKeyBytes = 32
)

/* Verifier checks Telnyx Ed25519 webhook signatures
 * The signed message is the raw concatenation timestamp|body, matching the
 * official Telnyx SDKs. Pure apart from reading the injected clock
 */
type Verifier struct {
	Tolerance time.Duration
	MaxSkew   time.Duration
	Now       func() time.Time
}

// NewVerifier creates a Verifier with the Telnyx default freshness window
func NewVerifier() Verifier {
	return Verifier{
		Tolerance: DefaultTolerance,
		MaxSkew:   DefaultMaxSkew,
		Now:       time.Now,
	}
}

// Verify checks the signature over the exact body bytes and returns a verdict.
// The freshness window is applied only after the cryptographic check succeeds,
// so a forged signature on an old timestamp still reports InvalidSignature.
func (v Verifier) Verify(body []byte, signatureB64, timestamp string, publicKey []byte) telnyx.Verdict {
	if signatureB64 == "" || timestamp == "" {
		return telnyx.MalformedHeader
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return telnyx.MalformedHeader
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != SignatureBytes {
		return telnyx.InvalidSignature
	}

	key, err := DecodePublicKey(publicKey)
	if err != nil {
		return telnyx.InvalidSignature
	}

	// signed message: timestamp|body, raw bytes, no extra encoding
	signed := make([]byte, 0, len(timestamp)+1+len(body))
	signed = append(signed, timestamp...)
	signed = append(signed, '|')
	signed = append(signed, body...)

	if !ed25519.Verify(ed25519.PublicKey(key), signed, sig) {
		return telnyx.InvalidSignature
	}

	now := v.now().Unix()
	if now-ts > int64(v.tolerance()/time.Second) {
		return telnyx.ExpiredTimestamp
	}
	if ts-now > int64(v.maxSkew()/time.Second) {
		return telnyx.FutureTimestamp
	}

	return telnyx.Valid
}

// DecodePublicKey accepts a raw 32-byte public key or its base64 encoding
func DecodePublicKey(key []byte) ([]byte, error) {
	if len(key) == PublicKeyBytes {
		return key, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(key)))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 public key: %w", err)
	}
	if len(decoded) != PublicKeyBytes {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", PublicKeyBytes, len(decoded))
	}

	return decoded, nil
}

func (v Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v Verifier) tolerance() time.Duration {
	if v.Tolerance > 0 {
		return v.Tolerance
	}
	return DefaultTolerance
}

func (v Verifier) maxSkew() time.Duration {
	if v.MaxSkew > 0 {
		return v.MaxSkew
	}
	return DefaultMaxSkew
}
