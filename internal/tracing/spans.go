package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanCheckUsername = "api.check_username"
	SpanCheckEmail    = "api.check_email"
	SpanCreateAccount = "api.create_account"
	SpanCSRF          = "session.csrf"
	SpanSignIn        = "session.signin"
	SpanSaveSession   = "session.save"
	SpanSubmit        = "enroll.submit"
)

// Attribute keys.
const (
	AttrHTTPStatus = "http.status_code"
	AttrHTTPPath   = "http.path"
	AttrRequestID  = "request.id"
	AttrField      = "signup.field"
	AttrUnique     = "signup.unique"
	AttrCacheHit   = "signup.cache_hit"
	AttrStep       = "signup.step"
)

// Start opens a client span. tracer may be nil.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Noop()
	}
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// End records err on span, sets the status and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
