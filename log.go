package fieldchat

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
)

// LogCallback logs every instrumented call through the context logger (clog.FromContext).
// Successful calls log at debug level, failures at warn. Format calls also report an
// estimated prompt size using Counter (CharFallbackCounter when nil).
type LogCallback struct {
	Counter TokenCounter
}

// OnStart implements Callback.
func (l LogCallback) OnStart(ctx context.Context, info CallInfo) context.Context {
	clog.FromContext(ctx).With("op", info.Op).
		With("adapter", info.Adapter).
		With("fallback", info.Fallback).
		Debug("fieldchat call started")
	return ctx
}

// OnEnd implements Callback.
func (l LogCallback) OnEnd(ctx context.Context, info CallInfo, err error) {
	log := clog.FromContext(ctx).With("op", info.Op).
		With("adapter", info.Adapter).
		With("fallback", info.Fallback).
		With("duration", time.Since(info.Start))
	switch info.Op {
	case OpFormat:
		tc := l.Counter
		if tc == nil {
			tc = &CharFallbackCounter{}
		}
		if n, cerr := CountMessages(tc, info.Messages); cerr == nil {
			log = log.With("messages", len(info.Messages)).With("prompt_tokens_est", n)
		}
	case OpModel:
		log = log.With("mode", info.Mode.String()).With("completions", len(info.Completions))
	}
	if err != nil {
		log.With("error", err.Error()).Warn("fieldchat call failed")
		return
	}
	log.Debug("fieldchat call finished")
}

var _ Callback = LogCallback{}
