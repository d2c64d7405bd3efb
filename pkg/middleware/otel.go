package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/ladderpulse/pkg/nav"
)

// Default tracer name.
const defaultTracerName = "ladderpulse"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "ladderpulse").
	TracerName string

	// IncludeState adds the full serialized state to spans. States can
	// carry player names typed into search forms, so it is off by default.
	IncludeState bool

	// Filter determines which restorations to trace.
	// If nil, all restorations are traced.
	Filter func(r *nav.Restoration) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(r *nav.Restoration) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracer uses t instead of the global provider's tracer.
func WithTracer(t trace.Tracer) OTelOption {
	return func(c *OTelConfig) {
		c.tracer = t
	}
}

// WithIncludeState enables the serialized state attribute.
func WithIncludeState(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeState = include
	}
}

// WithRestorationFilter sets a filter function for restorations.
func WithRestorationFilter(filter func(r *nav.Restoration) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(r *nav.Restoration) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every restoration.
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracer is given. Configure the provider in main():
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) nav.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.tracer == nil {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return func(next nav.RestoreFunc) nav.RestoreFunc {
		return func(ctx context.Context, r *nav.Restoration) error {
			if config.Filter != nil && !config.Filter(r) {
				return next(ctx, r)
			}

			attrs := []attribute.KeyValue{
				attribute.String("ladderpulse.kind", kindLabel(r)),
				attribute.String("ladderpulse.anchor", r.State.Hash),
				attribute.Bool("ladderpulse.push", r.Push),
			}
			if config.IncludeState {
				attrs = append(attrs, attribute.String("ladderpulse.state", r.State.String()))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(r)...)
			}

			spanCtx, span := config.tracer.Start(ctx,
				fmt.Sprintf("restore %s", kindLabel(r)),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			err := next(spanCtx, r)

			span.SetAttributes(attribute.Bool("ladderpulse.replay", r.Replay))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}
