package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/waypoint/pkg/router"
)

// Default tracer name for waypoint routers.
const defaultTracerName = "waypoint"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "waypoint").
	TracerName string

	// TracerProvider provides the tracer.
	// Default: the global provider (otel.GetTracerProvider).
	TracerProvider trace.TracerProvider

	// IncludeCaptures records the captured values on the span. They come
	// straight from the URL, so this is disabled by default.
	IncludeCaptures bool

	// Filter determines which navigations to trace.
	// Return true to trace, false to skip. If nil, all are traced.
	Filter func(nav *router.Navigation) bool

	// AttributeExtractor adds custom attributes per navigation.
	AttributeExtractor func(nav *router.Navigation) []attribute.KeyValue

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

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeCaptures enables recording capture values.
func WithIncludeCaptures(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeCaptures = include
	}
}

// WithNavigationFilter sets a filter function for navigations.
func WithNavigationFilter(filter func(nav *router.Navigation) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(nav *router.Navigation) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every navigation.
//
// The middleware:
//   - Creates a span per navigation with method, path and matched pattern
//   - Passes the span's context to the handlers
//   - Records errors and sets span status; ErrStop is not an error
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before serving:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return router.MiddlewareFunc(func(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
		if config.Filter != nil && !config.Filter(nav) {
			return next(ctx)
		}

		attrs := []attribute.KeyValue{
			attribute.String("waypoint.method", string(nav.Method)),
			attribute.String("waypoint.path", nav.Path),
			attribute.Bool("waypoint.matched", router.Matched(nav)),
		}
		if router.Matched(nav) {
			attrs = append(attrs,
				attribute.String("waypoint.pattern", nav.Match.Pattern),
				attribute.Int("waypoint.handlers", nav.Match.Len()),
			)
			if config.IncludeCaptures {
				attrs = append(attrs, attribute.StringSlice("waypoint.captures", nav.Match.Captures))
			}
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(nav)...)
		}

		spanCtx, span := config.tracer.Start(
			ctx,
			formatSpanName(nav),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
			trace.WithTimestamp(time.Now()),
		)
		defer span.End()

		err := next(spanCtx)

		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(err, router.ErrStop):
			span.SetAttributes(attribute.Bool("waypoint.stopped", true))
			span.SetStatus(codes.Ok, "")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return err
	})
}

// SpanFromContext returns the navigation span a handler runs under.
//
// Example:
//
//	func Post(ctx context.Context, captures ...string) error {
//	    middleware.SpanFromContext(ctx).SetAttributes(attribute.Int("post.words", n))
//	    return nil
//	}
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// formatSpanName names a span after the matched pattern, or "notfound".
func formatSpanName(nav *router.Navigation) string {
	if router.Matched(nav) {
		return fmt.Sprintf("waypoint %s %s", nav.Method, nav.Match.Pattern)
	}
	return fmt.Sprintf("waypoint %s notfound", nav.Method)
}
