package inbound

import (
	"context"

	"github.com/marcelsud/sms-inbox/gate"
	"github.com/marcelsud/sms-inbox/telnyx"
	"github.com/rs/zerolog"
)

/* Pipeline chains the early-reject gate, the event processor and the
 * fallback processor into the single entrypoint shared by the HTTP front
 * door and the stream consumer:
 *   gate deny -> fallback; processor panic -> fallback; otherwise processor
 */
type Pipeline struct {
	gate     *gate.Gate
	service  UseCase
	fallback *Fallback
	logger   zerolog.Logger
}

// NewPipeline creates the inbound pipeline
func NewPipeline(g *gate.Gate, service UseCase, fallback *Fallback, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		gate:     g,
		service:  service,
		fallback: fallback,
		logger:   logger,
	}
}

// Handle runs one request through the pipeline. Unexpected panics inside the
// processor are funneled to the fallback so the caller still gets an
// acknowledgment and the attempt is on record.
func (p *Pipeline) Handle(ctx context.Context, req telnyx.Request) (result Result) {
	if decision := p.gate.Authorize(req); !decision.Allow {
		p.logger.Warn().
			Str("reason", decision.Reason).
			Str("source_ip", req.SourceIP).
			Msg("gate denied request")
		return p.fallback.Handle(ctx, req)
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Interface("panic", r).
				Msg("processor panicked, routing to fallback")
			result = p.fallback.Handle(ctx, req)
		}
	}()

	return p.service.Process(ctx, req)
}
