package gate

import (
	"fmt"
	"net/netip"
	"strconv"
	"time"

	"github.com/marcelsud/sms-inbox/telnyx"
	"github.com/rs/zerolog"
)

/* Gate performs the cheap pre-checks that run before any expensive work:
 * required headers, coarse timestamp sanity and an optional source-network
 * allow-list. It never touches the body or the signature - the front door
 * may hand an early-stage check a truncated or re-encoded body, so full
 * cryptographic verification happens later against the exact bytes.
 * The gate holds no mutable state: identical headers always produce the
 * same decision, which lets the front door cache decisions safely
 */

// DefaultMaxAge is the coarse freshness window for the pre-check
const DefaultMaxAge = time.Hour

// DefaultProviderRanges are the published Telnyx egress CIDR blocks
var DefaultProviderRanges = []string{
	"185.86.151.0/24",
	"185.86.150.0/24",
	"147.75.0.0/16",
	"139.178.0.0/16",
	"136.144.0.0/16",
}

// Decision is the allow/deny answer consumed by the front door
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason,omitempty"`
}

// Config controls the gate's checks
type Config struct {
	// MaxAge overrides the coarse freshness window when positive
	MaxAge time.Duration

	// Strict denies sources outside the provider ranges instead of
	// logging and allowing them
	Strict bool

	// Ranges overrides DefaultProviderRanges when non-empty
	Ranges []string
}

type Gate struct {
	maxAge time.Duration
	strict bool
	ranges []netip.Prefix
	logger zerolog.Logger

	// Now is the injected clock, replaceable in tests
	Now func() time.Time
}

// New creates a gate from the given configuration
func New(cfg Config, logger zerolog.Logger) (*Gate, error) {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	raw := cfg.Ranges
	if len(raw) == 0 {
		raw = DefaultProviderRanges
	}

	ranges := make([]netip.Prefix, 0, len(raw))
	for _, r := range raw {
		prefix, err := netip.ParsePrefix(r)
		if err != nil {
			return nil, fmt.Errorf("parsing provider range %q: %w", r, err)
		}
		ranges = append(ranges, prefix)
	}

	return &Gate{
		maxAge: maxAge,
		strict: cfg.Strict,
		ranges: ranges,
		logger: logger,
		Now:    time.Now,
	}, nil
}

// Authorize runs the cheap checks and returns an allow/deny decision.
// It has no side effects beyond logging.
func (g *Gate) Authorize(req telnyx.Request) Decision {
	signature := req.Signature()
	timestamp := req.Timestamp()

	if signature == "" || timestamp == "" {
		return Decision{Allow: false, Reason: "missing required headers"}
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return Decision{Allow: false, Reason: "invalid timestamp format"}
	}

	if g.now().Unix()-ts > int64(g.maxAge/time.Second) {
		return Decision{Allow: false, Reason: "timestamp too old"}
	}

	if !g.fromProvider(req.SourceIP) {
		if g.strict {
			return Decision{Allow: false, Reason: "source address outside provider ranges"}
		}
		g.logger.Warn().
			Str("source_ip", req.SourceIP).
			Msg("request from address outside provider ranges")
	}

	return Decision{Allow: true}
}

func (g *Gate) fromProvider(sourceIP string) bool {
	addr, err := netip.ParseAddr(sourceIP)
	if err != nil {
		return false
	}
	for _, prefix := range g.ranges {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
