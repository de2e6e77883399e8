package inbound

import (
	"context"
	"fmt"
	"time"
)

/* ConversationState represents the processing path that last touched a conversation
 * Active means the normal processor stored the message; FallbackProcessed means
 * the degraded path did a best-effort store pending manual review
 */
type ConversationState int

const (
	StateActive ConversationState = iota + 1
	StateFallbackProcessed
)

// String returns the string representation of the state
func (s ConversationState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFallbackProcessed:
		return "fallback_processed"
	default:
		return "unknown"
	}
}

// NewConversationState creates a ConversationState from a string
func NewConversationState(str string) ConversationState {
	switch str {
	case "active":
		return StateActive
	case "fallback_processed":
		return StateFallbackProcessed
	default:
		return StateActive
	}
}

// Validate checks if the state is valid
func (s ConversationState) Validate() error {
	if s < StateActive || s > StateFallbackProcessed {
		return fmt.Errorf("invalid conversation state: %d", s)
	}
	return nil
}

/* Conversation is the persisted record of an SMS conversation, keyed by the
 * sender phone number. Replaying the same event updates the same record
 */
type Conversation struct {
	PhoneNumber   string
	LastMessage   string
	LastMessageID string
	State         ConversationState
	MessageCount  int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ConversationUpdate carries the fields an inbound message writes
type ConversationUpdate struct {
	PhoneNumber   string
	LastMessage   string
	LastMessageID string
	State         ConversationState
}

/* MetricType partitions audit records for operational review */
type MetricType int

const (
	MetricMessageReceived MetricType = iota + 1
	MetricMessageStatus
	MetricRequestRejected
	MetricFallbackEvent
	MetricFallbackError
)

// String returns the string representation of the metric type
func (m MetricType) String() string {
	switch m {
	case MetricMessageReceived:
		return "message_received"
	case MetricMessageStatus:
		return "message_status"
	case MetricRequestRejected:
		return "request_rejected"
	case MetricFallbackEvent:
		return "fallback_event"
	case MetricFallbackError:
		return "fallback_error"
	default:
		return "unknown"
	}
}

/* AuditRecord is an append-only trail entry keyed by date and metric type.
 * Written once per request, never updated, never read by the core
 */
type AuditRecord struct {
	ID             string
	Date           string // YYYY-MM-DD
	MetricType     MetricType
	Timestamp      time.Time
	SourceIP       string
	Headers        map[string]string
	Body           []byte
	PhoneNumber    string
	MessageID      string
	MessageLength  int
	Outcome        string
	Errors         []string
	RequiresReview bool
}

// ConversationRepository persists conversations keyed by sender phone number
type ConversationRepository interface {
	// Upsert creates the conversation on first contact and updates it on
	// subsequent messages, incrementing the message count
	Upsert(ctx context.Context, update ConversationUpdate) (Conversation, error)
}

// AuditRepository appends audit trail entries
type AuditRepository interface {
	Append(ctx context.Context, record AuditRecord) error
}
