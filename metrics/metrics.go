package metrics

import "context"

// Recorder counts the externally observable outcomes of the inbound pipeline.
type Recorder interface {
	// MessageReceived counts a stored inbound SMS
	MessageReceived(ctx context.Context)

	// Verdict counts a signature verification outcome by name
	Verdict(ctx context.Context, verdict string)

	// FallbackEvent counts a request routed through the fallback path
	FallbackEvent(ctx context.Context)

	// FallbackError counts an error inside the fallback path itself
	FallbackError(ctx context.Context)
}

// Noop is a Recorder that discards everything; used in tests
type Noop struct{}

func (Noop) MessageReceived(context.Context)   {}
func (Noop) Verdict(context.Context, string)   {}
func (Noop) FallbackEvent(context.Context)     {}
func (Noop) FallbackError(context.Context)     {}
