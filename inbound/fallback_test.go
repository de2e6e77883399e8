package inbound_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/marcelsud/sms-inbox/gate"
	"github.com/marcelsud/sms-inbox/inbound"
	"github.com/marcelsud/sms-inbox/inbound/mocks"
	"github.com/marcelsud/sms-inbox/metrics"
	"github.com/marcelsud/sms-inbox/telnyx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFallbackHandle(t *testing.T) {
	ctx := context.Background()

	receivedBody := []byte(`{"data":{"event_type":"message.received","payload":{"from":{"phone_number":"+15551234567"},"text":"hello","id":"m1"}}}`)

	request := func(body []byte) telnyx.Request {
		return telnyx.Request{
			Body:       body,
			Headers:    map[string]string{"user-agent": "telnyx-webhooks"},
			SourceIP:   "203.0.113.9",
			ReceivedAt: time.Now(),
		}
	}

	t.Run("success - message.received stored with fallback state", func(t *testing.T) {
		conversations := mocks.NewConversationRepository(t)
		audits := mocks.NewAuditRepository(t)
		fallback := inbound.NewFallback(conversations, audits, metrics.Noop{}, zerolog.Nop())

		audits.On("Append", ctx, inbound.MatchAudit(func(r inbound.AuditRecord) bool {
			return r.MetricType == inbound.MetricFallbackEvent &&
				r.RequiresReview &&
				r.SourceIP == "203.0.113.9"
		})).Return(nil)

		conversations.On("Upsert", ctx, inbound.MatchUpdate(func(u inbound.ConversationUpdate) bool {
			return u.PhoneNumber == "+15551234567" &&
				u.State == inbound.StateFallbackProcessed
		})).Return(inbound.Conversation{PhoneNumber: "+15551234567"}, nil)

		result := fallback.Handle(ctx, request(receivedBody))

		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.True(t, result.Processed)
		assert.Equal(t, "stored_message", result.Action)
		assert.Equal(t, "+15551234567", result.PhoneNumber)
	})

	t.Run("success - malformed body is audited and acknowledged", func(t *testing.T) {
		conversations := mocks.NewConversationRepository(t)
		audits := mocks.NewAuditRepository(t)
		fallback := inbound.NewFallback(conversations, audits, metrics.Noop{}, zerolog.Nop())

		audits.On("Append", ctx, inbound.MatchAudit(func(r inbound.AuditRecord) bool {
			return r.MetricType == inbound.MetricFallbackEvent
		})).Return(nil)

		result := fallback.Handle(ctx, request([]byte(`not even json`)))

		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.False(t, result.Processed)
		assert.True(t, result.RequiresReview)
		conversations.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("success - non-received event is not stored", func(t *testing.T) {
		conversations := mocks.NewConversationRepository(t)
		audits := mocks.NewAuditRepository(t)
		fallback := inbound.NewFallback(conversations, audits, metrics.Noop{}, zerolog.Nop())

		audits.On("Append", ctx, mock.Anything).Return(nil)

		body := []byte(`{"data":{"event_type":"message.delivered","payload":{"id":"m2"}}}`)
		result := fallback.Handle(ctx, request(body))

		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.False(t, result.Processed)
		conversations.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("success - store failure still acknowledged", func(t *testing.T) {
		conversations := mocks.NewConversationRepository(t)
		audits := mocks.NewAuditRepository(t)
		fallback := inbound.NewFallback(conversations, audits, metrics.Noop{}, zerolog.Nop())

		audits.On("Append", ctx, inbound.MatchAudit(func(r inbound.AuditRecord) bool {
			return r.MetricType == inbound.MetricFallbackEvent
		})).Return(nil).Once()
		conversations.On("Upsert", ctx, mock.Anything).
			Return(inbound.Conversation{}, errors.New("redis down"))
		audits.On("Append", ctx, inbound.MatchAudit(func(r inbound.AuditRecord) bool {
			return r.MetricType == inbound.MetricFallbackError &&
				r.Outcome == "redis down"
		})).Return(nil).Once()

		result := fallback.Handle(ctx, request(receivedBody))

		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.False(t, result.Processed)
		assert.True(t, result.RequiresReview)
	})

	t.Run("success - audit failure still acknowledged", func(t *testing.T) {
		conversations := mocks.NewConversationRepository(t)
		audits := mocks.NewAuditRepository(t)
		fallback := inbound.NewFallback(conversations, audits, metrics.Noop{}, zerolog.Nop())

		audits.On("Append", ctx, mock.Anything).Return(errors.New("stream full"))
		conversations.On("Upsert", ctx, mock.Anything).
			Return(inbound.Conversation{}, nil)

		result := fallback.Handle(ctx, request(receivedBody))

		assert.Equal(t, http.StatusOK, result.StatusCode)
	})
}

// panickingUseCase stands in for a processor hitting an unexpected bug
type panickingUseCase struct{}

func (panickingUseCase) Process(ctx context.Context, req telnyx.Request) inbound.Result {
	panic("boom")
}

func TestPipelineHandle(t *testing.T) {
	ctx := context.Background()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	receivedBody := []byte(`{"data":{"event_type":"message.received","payload":{"from":{"phone_number":"+15551234567"},"text":"hi","id":"m1"}}}`)

	newGate := func(t *testing.T) *gate.Gate {
		t.Helper()
		g, err := gate.New(gate.Config{}, zerolog.Nop())
		require.NoError(t, err)
		g.Now = func() time.Time { return testNow }
		return g
	}

	t.Run("success - gated request reaches the processor", func(t *testing.T) {
		conversations := mocks.NewConversationRepository(t)
		audits := mocks.NewAuditRepository(t)
		service := inbound.NewService(staticKeys{key: pub}, testVerifier(), conversations, audits, metrics.Noop{}, zerolog.Nop())
		fallback := inbound.NewFallback(conversations, audits, metrics.Noop{}, zerolog.Nop())
		pipeline := inbound.NewPipeline(newGate(t), service, fallback, zerolog.Nop())

		conversations.On("Upsert", ctx, mock.Anything).
			Return(inbound.Conversation{}, nil)
		audits.On("Append", ctx, inbound.MatchAudit(func(r inbound.AuditRecord) bool {
			return r.MetricType == inbound.MetricMessageReceived
		})).Return(nil)

		result := pipeline.Handle(ctx, signedTestRequest(t, priv, receivedBody, testNow.Unix()))

		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, "message_stored", result.Action)
	})

	t.Run("success - gate denial routes to fallback", func(t *testing.T) {
		conversations := mocks.NewConversationRepository(t)
		audits := mocks.NewAuditRepository(t)
		service := inbound.NewService(staticKeys{key: pub}, testVerifier(), conversations, audits, metrics.Noop{}, zerolog.Nop())
		fallback := inbound.NewFallback(conversations, audits, metrics.Noop{}, zerolog.Nop())
		pipeline := inbound.NewPipeline(newGate(t), service, fallback, zerolog.Nop())

		audits.On("Append", ctx, inbound.MatchAudit(func(r inbound.AuditRecord) bool {
			return r.MetricType == inbound.MetricFallbackEvent
		})).Return(nil)
		conversations.On("Upsert", ctx, inbound.MatchUpdate(func(u inbound.ConversationUpdate) bool {
			return u.State == inbound.StateFallbackProcessed
		})).Return(inbound.Conversation{}, nil)

		req := signedTestRequest(t, priv, receivedBody, testNow.Unix())
		delete(req.Headers, telnyx.HeaderSignature)

		result := pipeline.Handle(ctx, req)

		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, "stored_message", result.Action)
	})

	t.Run("success - processor panic routes to fallback", func(t *testing.T) {
		conversations := mocks.NewConversationRepository(t)
		audits := mocks.NewAuditRepository(t)
		fallback := inbound.NewFallback(conversations, audits, metrics.Noop{}, zerolog.Nop())
		pipeline := inbound.NewPipeline(newGate(t), panickingUseCase{}, fallback, zerolog.Nop())

		audits.On("Append", ctx, inbound.MatchAudit(func(r inbound.AuditRecord) bool {
			return r.MetricType == inbound.MetricFallbackEvent
		})).Return(nil)
		conversations.On("Upsert", ctx, mock.Anything).
			Return(inbound.Conversation{}, nil)

		result := pipeline.Handle(ctx, signedTestRequest(t, priv, receivedBody, testNow.Unix()))

		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, "stored_message", result.Action)
	})
}
