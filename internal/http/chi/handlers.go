package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/sms-inbox/gate"
	"github.com/marcelsud/sms-inbox/inbound"
)

// Handlers sets up the webhook API routes
func Handlers(ctx context.Context, pipeline *inbound.Pipeline, fallback *inbound.Fallback, g *gate.Gate, metricsHandler http.Handler) *chi.Mux {
	logger := httplog.NewLogger("sms-inbox", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Prometheus scrape endpoint
	r.Get("/metrics", metricsHandler.ServeHTTP)

	// Webhook API routes
	r.Route("/v1", func(r chi.Router) {
		// Primary webhook intake
		r.Post("/webhooks/telnyx", postWebhook(pipeline).ServeHTTP)

		// Dead-letter intake for provider retries
		r.Post("/webhooks/telnyx/fallback", postFallback(fallback).ServeHTTP)

		// Pre-check endpoint for edge authorizers
		r.Post("/authorize", postAuthorize(g).ServeHTTP)
	})

	return r
}
