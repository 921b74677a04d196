package fieldchat

import (
	"context"
	"time"
)

// Operation names reported in CallInfo.Op.
const (
	OpExchange = "exchange"
	OpFormat   = "format"
	OpModel    = "model"
	OpParse    = "parse"
)

// CallInfo describes one instrumented call. Fields not relevant to Op are zero.
// Messages is set for OpFormat (in OnEnd) and OpModel; Completion for OpParse;
// Completions for OpModel (in OnEnd).
type CallInfo struct {
	Op          string
	Adapter     string
	Fallback    bool
	Signature   *Signature
	Mode        ExecutionMode
	Start       time.Time
	Messages    []ChatMessage
	Completion  string
	Completions []string
}

// Callback observes calls. OnStart may return a derived context (e.g. carrying a span) that
// is passed to the wrapped call and to OnEnd. Callbacks must not mutate CallInfo contents.
type Callback interface {
	OnStart(ctx context.Context, info CallInfo) context.Context
	OnEnd(ctx context.Context, info CallInfo, err error)
}

func startCallbacks(ctx context.Context, cbs []Callback, info CallInfo) context.Context {
	for _, cb := range cbs {
		ctx = cb.OnStart(ctx, info)
	}
	return ctx
}

// endCallbacks runs in reverse registration order, mirroring deferred cleanup.
func endCallbacks(ctx context.Context, cbs []Callback, info CallInfo, err error) {
	for i := len(cbs) - 1; i >= 0; i-- {
		cbs[i].OnEnd(ctx, info, err)
	}
}

// Instrument wraps a with callbacks around every Format and Parse call.
// With no callbacks, a is returned unchanged.
func Instrument(a Adapter, callbacks ...Callback) Adapter {
	if len(callbacks) == 0 {
		return a
	}
	return &instrumented{inner: a, callbacks: callbacks}
}

type instrumented struct {
	inner     Adapter
	callbacks []Callback
	fallback  bool
}

func (i *instrumented) Name() string { return i.inner.Name() }

func (i *instrumented) Format(ctx context.Context, sig *Signature, demos []Values, inputs Values) (msgs []ChatMessage, err error) {
	info := CallInfo{Op: OpFormat, Adapter: i.inner.Name(), Fallback: i.fallback, Signature: sig, Start: time.Now()}
	ctx = startCallbacks(ctx, i.callbacks, info)
	defer func() {
		info.Messages = msgs
		endCallbacks(ctx, i.callbacks, info, err)
	}()
	return i.inner.Format(ctx, sig, demos, inputs)
}

func (i *instrumented) Parse(sig *Signature, completion string) (ParsedFields, error) {
	return i.parseContext(context.Background(), sig, completion)
}

// parseContext lets the exchange hand its own context (logger, span) to the callbacks.
func (i *instrumented) parseContext(ctx context.Context, sig *Signature, completion string) (fields ParsedFields, err error) {
	info := CallInfo{Op: OpParse, Adapter: i.inner.Name(), Fallback: i.fallback, Signature: sig, Start: time.Now(), Completion: completion}
	ctx = startCallbacks(ctx, i.callbacks, info)
	defer func() { endCallbacks(ctx, i.callbacks, info, err) }()
	return i.inner.Parse(sig, completion)
}

// contextParser is implemented by adapters that accept the exchange context while parsing.
type contextParser interface {
	parseContext(ctx context.Context, sig *Signature, completion string) (ParsedFields, error)
}
