package inbound

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/sms-inbox/metrics"
	"github.com/marcelsud/sms-inbox/telnyx"
	"github.com/rs/zerolog"
)

/* Fallback is the dead-letter path for requests that were denied by the gate,
 * arrived on the fallback endpoint, or blew up during processing.
 * It always answers success so the provider stops burning its retry budget
 * against a path that is known to be degraded; humans review the audit trail
 */
type Fallback struct {
	conversations ConversationRepository
	audits        AuditRepository
	recorder      metrics.Recorder
	logger        zerolog.Logger
}

// NewFallback creates the fallback processor with dependency injection
func NewFallback(
	conversations ConversationRepository,
	audits AuditRepository,
	recorder metrics.Recorder,
	logger zerolog.Logger,
) *Fallback {
	return &Fallback{
		conversations: conversations,
		audits:        audits,
		recorder:      recorder,
		logger:        logger,
	}
}

// Handle records the raw attempt and tries a best-effort store for recognized
// message.received payloads. The audit write happens before anything else and
// the status code is 200 on every path.
func (f *Fallback) Handle(ctx context.Context, req telnyx.Request) Result {
	// the raw attempt is logged for review before any other work
	f.appendAudit(ctx, req, AuditRecord{
		MetricType:     MetricFallbackEvent,
		RequiresReview: true,
		Outcome:        "received",
	})
	f.recorder.FallbackEvent(ctx)

	event, err := telnyx.ParseEvent(req.Body)
	if err != nil || event.Type != telnyx.MessageReceived || event.From == "" {
		return Result{
			StatusCode:     http.StatusOK,
			Message:        "fallback event received and logged",
			Processed:      false,
			RequiresReview: true,
		}
	}

	// best-effort simplified store; never retried automatically
	if _, err := f.conversations.Upsert(ctx, ConversationUpdate{
		PhoneNumber:   event.From,
		LastMessage:   event.Text,
		LastMessageID: event.MessageID,
		State:         StateFallbackProcessed,
	}); err != nil {
		f.logger.Error().
			Err(err).
			Str("phone_number", event.From).
			Msg("fallback store failed")
		f.recorder.FallbackError(ctx)
		f.appendAudit(ctx, req, AuditRecord{
			MetricType:     MetricFallbackError,
			PhoneNumber:    event.From,
			Outcome:        err.Error(),
			RequiresReview: true,
		})
		return Result{
			StatusCode:     http.StatusOK,
			Message:        "fallback handler error - logged for review",
			Processed:      false,
			RequiresReview: true,
		}
	}

	f.logger.Info().
		Str("phone_number", event.From).
		Msg("fallback processing completed")

	return Result{
		StatusCode:  http.StatusOK,
		Message:     "fallback processing successful",
		Processed:   true,
		Action:      "stored_message",
		EventType:   event.Type.String(),
		MessageID:   event.MessageID,
		PhoneNumber: event.From,
	}
}

// appendAudit mirrors Service.appendAudit; failures are logged, never raised
func (f *Fallback) appendAudit(ctx context.Context, req telnyx.Request, record AuditRecord) {
	now := time.Now().UTC()
	record.ID = uuid.New().String()
	record.Date = now.Format("2006-01-02")
	record.Timestamp = now
	record.SourceIP = req.SourceIP
	record.Headers = req.Headers
	record.Body = req.Body

	if err := f.audits.Append(ctx, record); err != nil {
		f.logger.Error().
			Err(err).
			Str("metric_type", record.MetricType.String()).
			Msg("appending audit record failed")
	}
}
