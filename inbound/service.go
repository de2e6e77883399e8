package inbound

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/sms-inbox/metrics"
	"github.com/marcelsud/sms-inbox/telnyx"
	"github.com/marcelsud/sms-inbox/telnyx/signature"
	"github.com/rs/zerolog"
)

/* Service is the event processor: full signature verification against the
 * exact body, typed parse, dispatch by event type
 * Uses pointer semantics as it's an API, not data
 */

// KeySource provides the current verification public key
type KeySource interface {
	Get(ctx context.Context) ([]byte, error)
}

// UseCase defines the business operations for inbound webhook processing
type UseCase interface {
	Process(ctx context.Context, req telnyx.Request) Result
}

type Service struct {
	keys          KeySource
	verifier      signature.Verifier
	conversations ConversationRepository
	audits        AuditRepository
	recorder      metrics.Recorder
	logger        zerolog.Logger
}

// NewService creates a new event processor with dependency injection
func NewService(
	keys KeySource,
	verifier signature.Verifier,
	conversations ConversationRepository,
	audits AuditRepository,
	recorder metrics.Recorder,
	logger zerolog.Logger,
) *Service {
	return &Service{
		keys:          keys,
		verifier:      verifier,
		conversations: conversations,
		audits:        audits,
		recorder:      recorder,
		logger:        logger,
	}
}

// Process verifies, parses and dispatches a single webhook request.
// A non-Valid verdict returns 401 without touching business logic; a
// persistence failure after a valid signature is reported in the result
// but never turned into a denial, so provider retries are not provoked
// by storage being down.
func (s *Service) Process(ctx context.Context, req telnyx.Request) Result {
	verdict := s.verify(ctx, req)
	s.recorder.Verdict(ctx, verdict.String())

	if verdict != telnyx.Valid {
		s.logger.Warn().
			Str("verdict", verdict.String()).
			Str("source_ip", req.SourceIP).
			Msg("webhook verification failed")
		s.appendAudit(ctx, req, AuditRecord{
			MetricType: MetricRequestRejected,
			Outcome:    verdict.String(),
		})
		return Unauthorized(verdict.String())
	}

	event, err := telnyx.ParseEvent(req.Body)
	if err != nil {
		s.logger.Warn().Err(err).Msg("malformed webhook payload")
		s.appendAudit(ctx, req, AuditRecord{
			MetricType: MetricRequestRejected,
			Outcome:    "malformed_payload",
		})
		return BadRequest()
	}

	switch event.Type {
	case telnyx.MessageReceived:
		return s.processReceived(ctx, req, event)
	case telnyx.MessageSent:
		return s.processStatus(ctx, req, event, "sent_confirmation")
	case telnyx.MessageDelivered:
		return s.processStatus(ctx, req, event, "delivery_confirmation")
	case telnyx.MessageFailed:
		return s.processFailed(ctx, req, event)
	default:
		s.logger.Warn().
			Str("event_type", event.RawType).
			Msg("unhandled event type")
		s.appendAudit(ctx, req, AuditRecord{
			MetricType: MetricMessageStatus,
			MessageID:  event.MessageID,
			Outcome:    "ignored",
		})
		return Result{
			StatusCode: http.StatusOK,
			Message:    "webhook processed successfully",
			Processed:  true,
			Action:     "ignored",
			EventType:  event.RawType,
		}
	}
}

func (s *Service) verify(ctx context.Context, req telnyx.Request) telnyx.Verdict {
	key, err := s.keys.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to retrieve verification key")
		return telnyx.KeyUnavailable
	}
	return s.verifier.Verify(req.Body, req.Signature(), req.Timestamp(), key)
}

// processReceived stores the inbound SMS as a conversation upsert
func (s *Service) processReceived(ctx context.Context, req telnyx.Request, event telnyx.Event) Result {
	result := Result{
		StatusCode:  http.StatusOK,
		Message:     "webhook processed successfully",
		Processed:   true,
		Action:      "message_stored",
		EventType:   event.Type.String(),
		MessageID:   event.MessageID,
		PhoneNumber: event.From,
	}

	if _, err := s.conversations.Upsert(ctx, ConversationUpdate{
		PhoneNumber:   event.From,
		LastMessage:   event.Text,
		LastMessageID: event.MessageID,
		State:         StateActive,
	}); err != nil {
		s.logger.Error().
			Err(err).
			Str("phone_number", event.From).
			Msg("storing conversation failed")
		result.Action = ""
		result.StorageError = err.Error()
	}

	s.appendAudit(ctx, req, AuditRecord{
		MetricType:    MetricMessageReceived,
		PhoneNumber:   event.From,
		MessageID:     event.MessageID,
		MessageLength: len(event.Text),
		Outcome:       "message_stored",
	})
	s.recorder.MessageReceived(ctx)

	return result
}

// processStatus acknowledges a sent/delivered confirmation; audit trail only
func (s *Service) processStatus(ctx context.Context, req telnyx.Request, event telnyx.Event, action string) Result {
	s.appendAudit(ctx, req, AuditRecord{
		MetricType: MetricMessageStatus,
		MessageID:  event.MessageID,
		Outcome:    action,
	})

	return Result{
		StatusCode: http.StatusOK,
		Message:    "webhook processed successfully",
		Processed:  true,
		Action:     action,
		EventType:  event.Type.String(),
		MessageID:  event.MessageID,
	}
}

// processFailed records the provider's error list alongside the message id
func (s *Service) processFailed(ctx context.Context, req telnyx.Request, event telnyx.Event) Result {
	errs := make([]string, 0, len(event.Errors))
	for _, e := range event.Errors {
		errs = append(errs, e.Code+": "+e.Title)
	}

	s.logger.Warn().
		Str("message_id", event.MessageID).
		Strs("errors", errs).
		Msg("message delivery failed")

	s.appendAudit(ctx, req, AuditRecord{
		MetricType: MetricMessageStatus,
		MessageID:  event.MessageID,
		Outcome:    "failure_notification",
		Errors:     errs,
	})

	return Result{
		StatusCode: http.StatusOK,
		Message:    "webhook processed successfully",
		Processed:  true,
		Action:     "failure_notification",
		EventType:  event.Type.String(),
		MessageID:  event.MessageID,
	}
}

// appendAudit fills the per-request fields and appends the record.
// Audit failures are logged and swallowed so they never fail the call.
func (s *Service) appendAudit(ctx context.Context, req telnyx.Request, record AuditRecord) {
	now := time.Now().UTC()
	record.ID = uuid.New().String()
	record.Date = now.Format("2006-01-02")
	record.Timestamp = now
	record.SourceIP = req.SourceIP
	record.Headers = req.Headers
	record.Body = req.Body

	if err := s.audits.Append(ctx, record); err != nil {
		s.logger.Error().
			Err(err).
			Str("metric_type", record.MetricType.String()).
			Msg("appending audit record failed")
	}
}
