package fieldchat

import (
	"context"
	"fmt"
)

// Model is the language model collaborator. Complete returns one completion string per
// candidate response, in order. params carries provider parameters (temperature, n, ...).
type Model interface {
	Complete(ctx context.Context, messages []ChatMessage, params map[string]any) ([]string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, messages []ChatMessage, params map[string]any) ([]string, error)

// Complete implements Model.
func (f ModelFunc) Complete(ctx context.Context, messages []ChatMessage, params map[string]any) ([]string, error) {
	return f(ctx, messages, params)
}

// Completion is the result delivered by an AsyncModel.
type Completion struct {
	Texts []string
	Err   error
}

// AsyncModel is optionally implemented by models with a native non-blocking call path.
// The returned channel must deliver exactly one Completion.
type AsyncModel interface {
	Model
	CompleteAsync(ctx context.Context, messages []ChatMessage, params map[string]any) <-chan Completion
}

// ExecutionMode selects how the model is invoked. It is passed per request.
type ExecutionMode int

const (
	// ModeBlocking calls Model.Complete on the calling goroutine.
	ModeBlocking ExecutionMode = iota
	// ModeSuspending starts the call asynchronously and waits for it or for ctx cancellation.
	ModeSuspending
)

// String returns "blocking" or "suspending".
func (m ExecutionMode) String() string {
	switch m {
	case ModeBlocking:
		return "blocking"
	case ModeSuspending:
		return "suspending"
	default:
		return fmt.Sprintf("ExecutionMode(%d)", int(m))
	}
}

// invoke is the only point where an exchange waits on something external.
func invoke(ctx context.Context, m Model, mode ExecutionMode, messages []ChatMessage, params map[string]any) ([]string, error) {
	if mode != ModeSuspending {
		return m.Complete(ctx, messages, params)
	}
	var ch <-chan Completion
	if am, ok := m.(AsyncModel); ok {
		ch = am.CompleteAsync(ctx, messages, params)
	} else {
		ch = completeAsync(ctx, m, messages, params)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case c, ok := <-ch:
		if !ok {
			return nil, ErrClosedCompletion
		}
		return c.Texts, c.Err
	}
}

// completeAsync lifts a blocking model onto its own goroutine. The channel is buffered so
// the goroutine exits as soon as the model returns, even if nobody receives.
func completeAsync(ctx context.Context, m Model, messages []ChatMessage, params map[string]any) <-chan Completion {
	ch := make(chan Completion, 1)
	go func() {
		defer close(ch)
		texts, err := m.Complete(ctx, messages, params)
		ch <- Completion{Texts: texts, Err: err}
	}()
	return ch
}
