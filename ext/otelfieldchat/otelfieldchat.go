// Package otelfieldchat reports fieldchat exchanges to OpenTelemetry.
//
// Tracer is a fieldchat.Callback that opens one span per instrumented operation: the exchange
// itself and, nested under it, every format, model and parse step. Spans end with an error
// status when the step fails. A protocol mismatch on a parse step is also counted in the
// "fieldchat.parse.mismatches" metric.
package otelfieldchat

import (
	"context"
	"errors"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/fieldchat"
)

// ScopeName is the instrumentation scope used for the tracer and meter.
const ScopeName = "github.com/skosovsky/fieldchat/ext/otelfieldchat"

// Attribute keys set on spans.
const (
	AttrAdapter     = attribute.Key("fieldchat.adapter")
	AttrFallback    = attribute.Key("fieldchat.fallback")
	AttrMode        = attribute.Key("fieldchat.mode")
	AttrOutputs     = attribute.Key("fieldchat.outputs")
	AttrMessages    = attribute.Key("fieldchat.messages")
	AttrCompletions = attribute.Key("fieldchat.completions")
)

// Tracer implements fieldchat.Callback.
type Tracer struct {
	tracer     trace.Tracer
	mismatches metric.Int64Counter
}

// Option configures a Tracer.
type Option func(*config)

type config struct {
	tp trace.TracerProvider
	mp metric.MeterProvider
}

// WithTracerProvider sets the provider; the global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tp = tp }
}

// WithMeterProvider sets the meter provider; the global provider is used by default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) { c.mp = mp }
}

// New returns a Tracer. If the mismatch counter cannot be created, a warning is logged
// and a no-op counter is used.
func New(ctx context.Context, opts ...Option) *Tracer {
	cfg := &config{tp: otel.GetTracerProvider(), mp: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(cfg)
	}
	meter := cfg.mp.Meter(ScopeName)
	mismatches, err := meter.Int64Counter("fieldchat.parse.mismatches",
		metric.WithDescription("Completions that did not match the signature's output fields"),
		metric.WithUnit("{completions}"))
	if err != nil {
		clog.FromContext(ctx).With("error", err).Warn("Failed to create mismatch counter, metric disabled")
		mismatches = noop.Int64Counter{}
	}
	return &Tracer{tracer: cfg.tp.Tracer(ScopeName), mismatches: mismatches}
}

// OnStart implements fieldchat.Callback.
func (t *Tracer) OnStart(ctx context.Context, info fieldchat.CallInfo) context.Context {
	attrs := []attribute.KeyValue{
		AttrAdapter.String(info.Adapter),
		AttrFallback.Bool(info.Fallback),
	}
	switch info.Op {
	case fieldchat.OpExchange, fieldchat.OpModel:
		attrs = append(attrs, AttrMode.String(info.Mode.String()))
	}
	if info.Signature != nil {
		attrs = append(attrs, AttrOutputs.StringSlice(info.Signature.OutputNames()))
	}
	kind := trace.SpanKindInternal
	if info.Op == fieldchat.OpModel {
		kind = trace.SpanKindClient
		attrs = append(attrs, AttrMessages.Int(len(info.Messages)))
	}
	ctx, _ = t.tracer.Start(ctx, "fieldchat."+info.Op,
		trace.WithTimestamp(info.Start),
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...))
	return ctx
}

// OnEnd implements fieldchat.Callback.
func (t *Tracer) OnEnd(ctx context.Context, info fieldchat.CallInfo, err error) {
	span := trace.SpanFromContext(ctx)
	switch info.Op {
	case fieldchat.OpFormat:
		span.SetAttributes(AttrMessages.Int(len(info.Messages)))
	case fieldchat.OpModel:
		span.SetAttributes(AttrCompletions.Int(len(info.Completions)))
	case fieldchat.OpParse:
		if errors.Is(err, fieldchat.ErrProtocolMismatch) {
			t.mismatches.Add(ctx, 1, metric.WithAttributes(AttrAdapter.String(info.Adapter)))
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ fieldchat.Callback = (*Tracer)(nil)
