package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// MeterProvider global instance
var globalMeterProvider *sdkmetric.MeterProvider

// InitMetrics installs a global meter provider exporting to a dedicated
// Prometheus registry and returns the scrape handler for it.
func InitMetrics(ctx context.Context, serviceName string) (*sdkmetric.MeterProvider, http.Handler, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	globalMeterProvider = provider
	return provider, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// Meter returns a meter from the current global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// ChatMetrics records chat endpoint activity.
type ChatMetrics struct {
	requests  metric.Int64Counter
	latency   metric.Float64Histogram
	qa        metric.Int64Counter
	fallbacks metric.Int64Counter
}

// NewChatMetrics creates the chat instruments on meter.
func NewChatMetrics(meter metric.Meter) (*ChatMetrics, error) {
	requests, err := meter.Int64Counter(
		"marketcrew.chat.requests",
		metric.WithDescription("Total number of chat requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	latency, err := meter.Float64Histogram(
		"marketcrew.chat.latency",
		metric.WithDescription("Chat request latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	qa, err := meter.Int64Counter(
		"marketcrew.qa.verifications",
		metric.WithDescription("QA verdicts attached to chat responses"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QA counter: %w", err)
	}

	fallbacks, err := meter.Int64Counter(
		"marketcrew.chat.fallbacks",
		metric.WithDescription("Chat answers built from lookups after an agent failure"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback counter: %w", err)
	}

	return &ChatMetrics{requests: requests, latency: latency, qa: qa, fallbacks: fallbacks}, nil
}

// RecordRequest counts one request with its category and outcome.
func (m *ChatMetrics) RecordRequest(ctx context.Context, category string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("status", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}

// RecordQA counts a QA verdict.
func (m *ChatMetrics) RecordQA(ctx context.Context, passed bool) {
	m.qa.Add(ctx, 1, metric.WithAttributes(attribute.Bool("passed", passed)))
}

// RecordFallback counts a fallback answer.
func (m *ChatMetrics) RecordFallback(ctx context.Context, category string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}
