package gateway

import "context"

// Future is the pending result of a request started with Go.
type Future struct {
	done chan struct{}
	resp *Response
	err  error
}

// Go starts d in its own goroutine. Cancelling ctx cancels the request.
func (g *Gateway) Go(ctx context.Context, d Descriptor) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.resp, f.err = g.Request(ctx, d)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await waits for the result or for ctx to end, whichever comes first.
// Abandoning the wait does not cancel the request.
func (f *Future) Await(ctx context.Context) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.resp, f.err
	}
}
