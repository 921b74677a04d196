package fieldchat

import "context"

// Future is the pending result of an exchange started with Client.Go.
type Future struct {
	done    chan struct{}
	results []ParsedFields
	err     error
}

// Go starts req on a new goroutine and returns immediately. Cancelling ctx cancels the
// exchange at its model call; the Future then resolves with ctx.Err().
func (c *Client) Go(ctx context.Context, req Request) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.results, f.err = c.Exchange(ctx, req)
	}()
	return f
}

// Done is closed once the exchange has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the exchange finishes or ctx is done. Abandoning a Future through ctx
// does not stop the exchange; cancel the context given to Go for that.
func (f *Future) Wait(ctx context.Context) ([]ParsedFields, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.results, f.err
	}
}
