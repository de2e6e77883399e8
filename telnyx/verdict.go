package telnyx

/* Verdict is the outcome of verifying a webhook request
 * Produced by the signature verifier, consumed by the processor; never persisted
 */
type Verdict int

const (
	Valid Verdict = iota + 1
	InvalidSignature
	ExpiredTimestamp
	FutureTimestamp
	MalformedHeader
	KeyUnavailable
)

// String returns the string representation of the verdict
func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case InvalidSignature:
		return "invalid_signature"
	case ExpiredTimestamp:
		return "expired_timestamp"
	case FutureTimestamp:
		return "future_timestamp"
	case MalformedHeader:
		return "malformed_header"
	case KeyUnavailable:
		return "key_unavailable"
	default:
		return "unknown"
	}
}
