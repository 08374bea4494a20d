package effect

import (
	"context"
	"fmt"

	"github.com/parsecfs/parsec/pkg/metrics"
)

// Request describes one call a Dispatcher should resolve. Method is the
// wire command name (e.g. "BlockService:create", "VlobService:read");
// Params carries whatever the concrete Dispatcher needs to interpret it.
type Request struct {
	Method string
	Params any
}

// Dispatcher resolves a Request to a raw result, or an error. Concrete
// implementations live in pkg/wsbackend (a live websocket connection) and
// in tests (a scripted fake).
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (any, error)
}

// DispatcherFunc adapts a plain function to a Dispatcher.
type DispatcherFunc func(ctx context.Context, req Request) (any, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, req Request) (any, error) {
	return f(ctx, req)
}

type job struct {
	ctx  context.Context
	req  Request
	resp chan result
}

type result struct {
	value any
	err   error
}

// Mailbox funnels concurrent Submit calls through a single goroutine so
// a Dispatcher never sees two requests in flight at once. Requests are
// resolved strictly in submission order.
type Mailbox struct {
	dispatcher Dispatcher
	label      string
	jobs       chan job
	done       chan struct{}
}

// NewMailbox starts the draining goroutine and returns a ready Mailbox.
// capacity bounds how many Submit calls may be queued before callers
// block; 0 is treated as an unbuffered channel. label identifies this
// mailbox in the parsec_effect_mailbox_depth gauge (e.g. a connection or
// file id); callers that don't need per-instance breakdown can pass "".
func NewMailbox(dispatcher Dispatcher, capacity int, label string) *Mailbox {
	m := &Mailbox{
		dispatcher: dispatcher,
		label:      label,
		jobs:       make(chan job, capacity),
		done:       make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Mailbox) depth() float64 { return float64(len(m.jobs)) }

func (m *Mailbox) run() {
	for j := range m.jobs {
		metrics.MailboxQueueDepth.WithLabelValues(m.label).Set(m.depth())
		value, err := m.dispatcher.Dispatch(j.ctx, j.req)
		j.resp <- result{value: value, err: err}
		metrics.MailboxQueueDepth.WithLabelValues(m.label).Set(m.depth())
	}
	close(m.done)
}

// Submit enqueues req and blocks until it has been dispatched (or ctx is
// canceled first). If ctx is canceled after the request was enqueued, the
// request stays queued and the draining goroutine still dispatches it;
// Close does not drop it either, it drains it.
func (m *Mailbox) Submit(ctx context.Context, req Request) (any, error) {
	j := job{ctx: ctx, req: req, resp: make(chan result, 1)}

	select {
	case m.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-j.resp:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting new work and waits for the goroutine to drain
// whatever was already queued.
func (m *Mailbox) Close() {
	close(m.jobs)
	<-m.done
}

// ErrorDispatcher builds a Dispatcher that always fails with err,
// formatted with the request's Method. Useful for tests that exercise
// the failure path of a caller without a real backend.
func ErrorDispatcher(err error) Dispatcher {
	return DispatcherFunc(func(_ context.Context, req Request) (any, error) {
		return nil, fmt.Errorf("%s: %w", req.Method, err)
	})
}
