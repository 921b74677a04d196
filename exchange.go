package fieldchat

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/chainguard-dev/clog"
)

// Request is one logical model call. Signature, Demos and Inputs are read-only snapshots.
type Request struct {
	Model     Model
	Params    map[string]any
	Signature *Signature
	Demos     []Values
	Inputs    Values
	Mode      ExecutionMode
}

// Client drives exchanges: format, invoke the model, parse every completion, and on a parse
// failure retry the whole exchange once with the fallback adapter.
// A Client holds no per-call state and is safe for concurrent use.
type Client struct {
	primary   Adapter
	fallback  Adapter
	callbacks []Callback
}

// ClientOption configures a Client (functional options pattern).
type ClientOption func(*clientConfig)

type clientConfig struct {
	primary    Adapter
	fallback   Adapter
	noFallback bool
	callbacks  []Callback
}

// WithAdapter sets the primary adapter. Default is NewChatAdapter().
func WithAdapter(a Adapter) ClientOption {
	return func(c *clientConfig) { c.primary = a }
}

// WithFallback sets the fallback adapter. Default is NewJSONAdapter().
func WithFallback(a Adapter) ClientOption {
	return func(c *clientConfig) { c.fallback = a }
}

// WithoutFallback disables the fallback retry; parse failures surface immediately.
func WithoutFallback() ClientOption {
	return func(c *clientConfig) { c.noFallback = true }
}

// WithCallbacks appends callbacks invoked around every exchange, format, model call and parse.
func WithCallbacks(cbs ...Callback) ClientOption {
	return func(c *clientConfig) { c.callbacks = append(c.callbacks, cbs...) }
}

// NewClient returns a Client with options applied.
func NewClient(opts ...ClientOption) *Client {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.primary == nil {
		cfg.primary = NewChatAdapter()
	}
	if cfg.fallback == nil && !cfg.noFallback {
		cfg.fallback = NewJSONAdapter()
	}
	c := &Client{primary: cfg.primary, callbacks: cfg.callbacks}
	if len(cfg.callbacks) > 0 {
		c.primary = &instrumented{inner: cfg.primary, callbacks: cfg.callbacks}
	}
	if cfg.fallback != nil && !cfg.noFallback {
		c.fallback = cfg.fallback
		if len(cfg.callbacks) > 0 {
			c.fallback = &instrumented{inner: cfg.fallback, callbacks: cfg.callbacks, fallback: true}
		}
	}
	return c
}

// exchangeState carries the adapter for this attempt and whether a fallback attempt is still allowed.
type exchangeState struct {
	adapter     Adapter
	canFallback bool
	isFallback  bool
}

// Exchange runs one logical call and returns one ParsedFields per completion, in order.
// Model errors are returned unchanged. If any completion fails to parse and a fallback adapter
// is configured, the entire exchange is repeated once with it; the fallback never falls back.
func (c *Client) Exchange(ctx context.Context, req Request) (results []ParsedFields, err error) {
	if req.Signature == nil {
		return nil, ErrNilSignature
	}
	if req.Model == nil {
		return nil, ErrNilModel
	}
	info := CallInfo{Op: OpExchange, Adapter: c.primary.Name(), Signature: req.Signature, Mode: req.Mode, Start: time.Now()}
	ctx = startCallbacks(ctx, c.callbacks, info)
	defer func() { endCallbacks(ctx, c.callbacks, info, err) }()
	return c.exchange(ctx, exchangeState{adapter: c.primary, canFallback: c.fallback != nil}, req)
}

func (c *Client) exchange(ctx context.Context, st exchangeState, req Request) ([]ParsedFields, error) {
	messages, err := st.adapter.Format(ctx, req.Signature, req.Demos, req.Inputs)
	if err != nil {
		return nil, err
	}
	completions, err := c.invokeModel(ctx, st, req, messages)
	if err != nil {
		return nil, err
	}
	results, err := parseAll(ctx, st.adapter, req.Signature, completions)
	if err == nil {
		return results, nil
	}
	if !st.canFallback {
		return nil, err
	}
	clog.FromContext(ctx).With("adapter", st.adapter.Name()).
		With("fallback", c.fallback.Name()).
		With("error", err.Error()).
		Warn("Completion did not match signature, retrying with fallback adapter")
	return c.exchange(ctx, exchangeState{adapter: c.fallback, isFallback: true}, req)
}

func (c *Client) invokeModel(ctx context.Context, st exchangeState, req Request, messages []ChatMessage) (completions []string, err error) {
	if len(c.callbacks) > 0 {
		info := CallInfo{
			Op:        OpModel,
			Adapter:   st.adapter.Name(),
			Fallback:  st.isFallback,
			Signature: req.Signature,
			Mode:      req.Mode,
			Start:     time.Now(),
			Messages:  messages,
		}
		ctx = startCallbacks(ctx, c.callbacks, info)
		defer func() {
			info.Completions = completions
			endCallbacks(ctx, c.callbacks, info, err)
		}()
	}
	return invoke(ctx, req.Model, req.Mode, messages, maps.Clone(req.Params))
}

// parseAll parses every completion and enforces the exact output key set, regardless of
// what the adapter itself checks.
func parseAll(ctx context.Context, a Adapter, sig *Signature, completions []string) ([]ParsedFields, error) {
	results := make([]ParsedFields, 0, len(completions))
	for _, completion := range completions {
		var fields ParsedFields
		var err error
		if cp, ok := a.(contextParser); ok {
			fields, err = cp.parseContext(ctx, sig, completion)
		} else {
			fields, err = a.Parse(sig, completion)
		}
		if err != nil {
			return nil, err
		}
		if err := checkKeys(a.Name(), sig, fields, completion); err != nil {
			return nil, err
		}
		results = append(results, fields)
	}
	return results, nil
}

func checkKeys(adapter string, sig *Signature, fields ParsedFields, raw string) error {
	ok := len(fields) == len(sig.OutputFields)
	for _, f := range sig.OutputFields {
		if _, present := fields[f.Name]; !present {
			ok = false
			break
		}
	}
	if ok {
		return nil
	}
	return &MismatchError{Adapter: adapter, Expected: sig.OutputNames(), Actual: slices.Sorted(maps.Keys(fields)), Raw: raw}
}
