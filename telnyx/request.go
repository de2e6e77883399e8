package telnyx

import (
	"strings"
	"time"
)

// Header names Telnyx attaches to every webhook delivery
const (
	HeaderSignature = "telnyx-signature-ed25519"
	HeaderTimestamp = "telnyx-timestamp"
)

/* Request represents a single inbound webhook call
 * Uses value semantics as it represents data, not behavior
 * Created once per call, never mutated, discarded after processing
 */
type Request struct {
	Body       []byte
	Headers    map[string]string
	SourceIP   string
	ReceivedAt time.Time
}

// Header returns a header value by case-insensitive name
func (r Request) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Signature returns the base64 Ed25519 signature header value
func (r Request) Signature() string {
	return r.Header(HeaderSignature)
}

// Timestamp returns the webhook timestamp header value (unix seconds)
func (r Request) Timestamp() string {
	return r.Header(HeaderTimestamp)
}
