package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelRecorder provides OpenTelemetry metrics export following OTel standards
type OTelRecorder struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	messagesReceived metric.Int64Counter
	verdicts         metric.Int64Counter
	fallbackEvents   metric.Int64Counter
	fallbackErrors   metric.Int64Counter
}

// NewOTelRecorder creates a new OpenTelemetry recorder with Prometheus format
func NewOTelRecorder() (*OTelRecorder, error) {
	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"sms-inbox",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	r := &OTelRecorder{
		meterProvider: meterProvider,
		meter:         meter,
	}

	if err := r.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return r, nil
}

// registerInstruments creates and registers all metric instruments
func (r *OTelRecorder) registerInstruments() error {
	var err error

	r.messagesReceived, err = r.meter.Int64Counter(
		"webhook.messages.received",
		metric.WithDescription("Inbound SMS messages stored from verified webhooks"),
		metric.WithUnit("{messages}"),
	)
	if err != nil {
		return fmt.Errorf("creating messages received counter: %w", err)
	}

	r.verdicts, err = r.meter.Int64Counter(
		"webhook.verification.verdicts",
		metric.WithDescription("Signature verification outcomes by verdict"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating verdicts counter: %w", err)
	}

	r.fallbackEvents, err = r.meter.Int64Counter(
		"webhook.fallback.events",
		metric.WithDescription("Requests routed through the fallback path"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating fallback events counter: %w", err)
	}

	r.fallbackErrors, err = r.meter.Int64Counter(
		"webhook.fallback.errors",
		metric.WithDescription("Errors raised inside the fallback path"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return fmt.Errorf("creating fallback errors counter: %w", err)
	}

	return nil
}

// MessageReceived counts a stored inbound SMS
func (r *OTelRecorder) MessageReceived(ctx context.Context) {
	r.messagesReceived.Add(ctx, 1)
}

// Verdict counts a signature verification outcome
func (r *OTelRecorder) Verdict(ctx context.Context, verdict string) {
	r.verdicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("webhook.verdict", verdict),
	))
}

// FallbackEvent counts a request routed through the fallback path
func (r *OTelRecorder) FallbackEvent(ctx context.Context) {
	r.fallbackEvents.Add(ctx, 1)
}

// FallbackError counts an error inside the fallback path
func (r *OTelRecorder) FallbackError(ctx context.Context) {
	r.fallbackErrors.Add(ctx, 1)
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (r *OTelRecorder) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (r *OTelRecorder) Shutdown(ctx context.Context) error {
	if r.meterProvider != nil {
		return r.meterProvider.Shutdown(ctx)
	}
	return nil
}
