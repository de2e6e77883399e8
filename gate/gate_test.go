package gate

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/marcelsud/sms-inbox/telnyx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, cfg Config, now time.Time) *Gate {
	t.Helper()

	g, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	g.Now = func() time.Time { return now }
	return g
}

func request(sourceIP string, ts int64) telnyx.Request {
	return telnyx.Request{
		Headers: map[string]string{
			telnyx.HeaderSignature: "c2lnbmF0dXJl",
			telnyx.HeaderTimestamp: strconv.FormatInt(ts, 10),
		},
		SourceIP: sourceIP,
	}
}

func TestAuthorize(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success - fresh request from provider range", func(t *testing.T) {
		g := newTestGate(t, Config{}, now)

		decision := g.Authorize(request("185.86.151.10", now.Unix()))
		assert.True(t, decision.Allow)
		assert.Empty(t, decision.Reason)
	})

	t.Run("deny - missing signature header", func(t *testing.T) {
		g := newTestGate(t, Config{}, now)

		req := request("185.86.151.10", now.Unix())
		delete(req.Headers, telnyx.HeaderSignature)

		decision := g.Authorize(req)
		assert.False(t, decision.Allow)
		assert.Equal(t, "missing required headers", decision.Reason)
	})

	t.Run("deny - missing timestamp header", func(t *testing.T) {
		g := newTestGate(t, Config{}, now)

		req := request("185.86.151.10", now.Unix())
		delete(req.Headers, telnyx.HeaderTimestamp)

		decision := g.Authorize(req)
		assert.False(t, decision.Allow)
	})

	t.Run("deny - timestamp not an integer", func(t *testing.T) {
		g := newTestGate(t, Config{}, now)

		req := request("185.86.151.10", now.Unix())
		req.Headers[telnyx.HeaderTimestamp] = "yesterday"

		decision := g.Authorize(req)
		assert.False(t, decision.Allow)
		assert.Equal(t, "invalid timestamp format", decision.Reason)
	})

	t.Run("deny - timestamp older than an hour", func(t *testing.T) {
		g := newTestGate(t, Config{}, now)

		decision := g.Authorize(request("185.86.151.10", now.Add(-2*time.Hour).Unix()))
		assert.False(t, decision.Allow)
		assert.Equal(t, "timestamp too old", decision.Reason)
	})

	t.Run("allow - unknown source in permissive mode", func(t *testing.T) {
		g := newTestGate(t, Config{}, now)

		decision := g.Authorize(request("203.0.113.7", now.Unix()))
		assert.True(t, decision.Allow)
	})

	t.Run("deny - unknown source in strict mode", func(t *testing.T) {
		g := newTestGate(t, Config{Strict: true}, now)

		decision := g.Authorize(request("203.0.113.7", now.Unix()))
		assert.False(t, decision.Allow)
		assert.Equal(t, "source address outside provider ranges", decision.Reason)
	})

	t.Run("allow - provider source in strict mode", func(t *testing.T) {
		g := newTestGate(t, Config{Strict: true}, now)

		decision := g.Authorize(request("147.75.12.1", now.Unix()))
		assert.True(t, decision.Allow)
	})

	t.Run("repeatable - identical requests produce identical decisions", func(t *testing.T) {
		g := newTestGate(t, Config{Strict: true}, now)

		req := request("203.0.113.7", now.Unix())
		first := g.Authorize(req)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, g.Authorize(req))
		}
	})

	t.Run("error - invalid configured range", func(t *testing.T) {
		_, err := New(Config{Ranges: []string{"not-a-cidr"}}, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing provider range")
	})
}

func TestLoadRanges(t *testing.T) {
	t.Run("success - valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ranges.yaml")
		content := "strict: true\nranges:\n  - 185.86.151.0/24\n  - 147.75.0.0/16\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		file, err := LoadRanges(path)
		require.NoError(t, err)
		assert.True(t, file.Strict)
		assert.Len(t, file.Ranges, 2)
	})

	t.Run("error - missing file", func(t *testing.T) {
		_, err := LoadRanges(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading ranges file")
	})

	t.Run("error - empty ranges", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ranges.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ranges: []\n"), 0o600))

		_, err := LoadRanges(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declares no ranges")
	})

	t.Run("error - invalid CIDR", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ranges.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ranges:\n  - 300.0.0.0/8\n"), 0o600))

		_, err := LoadRanges(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validating range")
	})
}
