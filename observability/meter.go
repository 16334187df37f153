package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config, svc Service) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Metrics holds the instruments todoapi records.
type Metrics struct {
	requestTotal     metric.Int64Counter
	requestDuration  metric.Float64Histogram
	authFailures     metric.Int64Counter
	passwordDuration metric.Float64Histogram
	passwordRejected metric.Int64Counter
	tokensIssued     metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.requestTotal, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.requests counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.duration histogram: %w", err)
	}
	if m.authFailures, err = meter.Int64Counter("auth.failures",
		metric.WithDescription("Rejected authentication attempts by reason"),
	); err != nil {
		return nil, fmt.Errorf("creating auth.failures counter: %w", err)
	}
	if m.passwordDuration, err = meter.Float64Histogram("password.duration",
		metric.WithDescription("Duration of bcrypt hash and verify operations in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating password.duration histogram: %w", err)
	}
	if m.passwordRejected, err = meter.Int64Counter("password.rejected",
		metric.WithDescription("Password operations rejected because no worker slot was free"),
	); err != nil {
		return nil, fmt.Errorf("creating password.rejected counter: %w", err)
	}
	if m.tokensIssued, err = meter.Int64Counter("auth.tokens_issued",
		metric.WithDescription("Access tokens issued"),
	); err != nil {
		return nil, fmt.Errorf("creating auth.tokens_issued counter: %w", err)
	}
	return &m, nil
}

// DefaultMetrics creates Metrics on the global meter provider. Instruments
// created on the no-op provider never fail, so an error here means a
// misconfigured SDK.
func DefaultMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(TracerName))
}

// RecordRequest records a completed HTTP request. route is the matched
// route pattern, never the raw path.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.requestTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordAuthFailure counts a rejected authentication attempt.
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.authFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordPassword records the duration of a hash or verify operation.
func (m *Metrics) RecordPassword(ctx context.Context, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.passwordDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("op", op)))
}

// RecordPasswordRejected counts a password operation that never got a slot.
func (m *Metrics) RecordPasswordRejected(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.passwordRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordTokenIssued counts an issued access token.
func (m *Metrics) RecordTokenIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.tokensIssued.Add(ctx, 1)
}
