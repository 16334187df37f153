package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every todoapi span.
const TracerName = "github.com/kbukum/todoapi"

// Span names.
const (
	SpanAuthenticate   = "auth.authenticate"
	SpanPasswordHash   = "password.hash"
	SpanPasswordVerify = "password.verify"
	SpanTokenIssue     = "token.issue"
)

// Attribute keys.
const (
	AttrAuthReason = "auth.reason"
	AttrUserID     = "user.id"
)

// Service is stamped on every exported span and metric.
type Service struct {
	Name        string
	Version     string
	Environment string
}

func (s Service) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", s.Name),
		attribute.String("service.version", s.Version),
		attribute.String("deployment.environment", s.Environment),
	}
}

func newResource(svc Service) (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewSchemaless(svc.attributes()...))
}

// InitTracer exports spans over OTLP/HTTP and makes the provider global,
// together with W3C trace context and baggage propagation. Callers shut
// the provider down on exit.
func InitTracer(ctx context.Context, cfg Config, svc Service) (*sdktrace.TracerProvider, error) {
	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
		sdktrace.WithBatcher(exp),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

// sampler follows the parent's decision and samples roots at rate.
func sampler(rate float64) sdktrace.Sampler {
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	root := sdktrace.AlwaysSample()
	if rate < 1 {
		root = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(root)
}

// Tracer is the todoapi tracer of the global provider.
func Tracer() trace.Tracer { return otel.Tracer(TracerName) }

// StartSpan starts a span on Tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// TraceID is the hex trace id in ctx, empty when there is none.
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
