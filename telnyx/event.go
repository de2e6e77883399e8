package telnyx

import (
	"encoding/json"
	"fmt"
)

/* EventType is the taxonomy of webhook events the system understands
 * Unrecognized types map to Unknown, which is acknowledged but never processed
 */
type EventType int

const (
	MessageReceived EventType = iota + 1
	MessageSent
	MessageDelivered
	MessageFailed
	Unknown
)

// String returns the wire representation of the event type
func (t EventType) String() string {
	switch t {
	case MessageReceived:
		return "message.received"
	case MessageSent:
		return "message.sent"
	case MessageDelivered:
		return "message.delivered"
	case MessageFailed:
		return "message.failed"
	default:
		return "unknown"
	}
}

// NewEventType creates an EventType from its wire representation
func NewEventType(s string) EventType {
	switch s {
	case "message.received":
		return MessageReceived
	case "message.sent":
		return MessageSent
	case "message.delivered":
		return MessageDelivered
	case "message.failed":
		return MessageFailed
	default:
		return Unknown
	}
}

// EventError is a delivery error reported alongside a failed message
type EventError struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

/* Event is the parsed webhook payload, a typed view over the four known
 * event shapes plus Unknown. Missing optional fields decode to zero values
 */
type Event struct {
	Type      EventType
	RawType   string
	MessageID string
	From      string
	To        []string
	Text      string
	Errors    []EventError
}

// envelope mirrors the Telnyx wire format: everything nests under "data"
type envelope struct {
	Data struct {
		EventType string `json:"event_type"`
		ID        string `json:"id"`
		Payload   struct {
			ID   string `json:"id"`
			From struct {
				PhoneNumber string `json:"phone_number"`
			} `json:"from"`
			To []struct {
				PhoneNumber string `json:"phone_number"`
			} `json:"to"`
			Text   string       `json:"text"`
			Errors []EventError `json:"errors"`
		} `json:"payload"`
	} `json:"data"`
}

// ParseEvent decodes a webhook body into an Event.
// An unrecognized event_type is not an error; malformed JSON is.
func ParseEvent(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("unmarshaling webhook payload: %w", err)
	}

	event := Event{
		Type:      NewEventType(env.Data.EventType),
		RawType:   env.Data.EventType,
		MessageID: env.Data.Payload.ID,
		From:      env.Data.Payload.From.PhoneNumber,
		Text:      env.Data.Payload.Text,
		Errors:    env.Data.Payload.Errors,
	}

	for _, to := range env.Data.Payload.To {
		if to.PhoneNumber != "" {
			event.To = append(event.To, to.PhoneNumber)
		}
	}

	return event, nil
}
