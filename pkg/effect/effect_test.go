package effect_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecfs/parsec/pkg/effect"
)

// serialRecorder appends Method to order on every Dispatch, after an
// artificial delay, and records the highest number of Dispatch calls seen
// running at once, so overlapping dispatches show up if the Mailbox failed
// to serialize them.
type serialRecorder struct {
	mu          sync.Mutex
	order       []string
	inFlight    int
	maxInFlight int
}

func (r *serialRecorder) Dispatch(_ context.Context, req effect.Request) (any, error) {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	r.mu.Unlock()
	time.Sleep(time.Millisecond)
	r.mu.Lock()
	r.inFlight--
	r.order = append(r.order, req.Method)
	r.mu.Unlock()
	return req.Params, nil
}

func TestMailboxSerializesConcurrentSubmits(t *testing.T) {
	rec := &serialRecorder{}
	mb := effect.NewMailbox(rec, 0, "test")
	defer mb.Close()

	var wg sync.WaitGroup
	results := make([]any, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := mb.Submit(context.Background(), effect.Request{Method: "noop", Params: i})
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.order, 20)
	assert.Equal(t, 1, rec.maxInFlight)
	for i, v := range results {
		assert.Equal(t, i, v)
	}
}

func TestMailboxPropagatesDispatcherError(t *testing.T) {
	mb := effect.NewMailbox(effect.ErrorDispatcher(assert.AnError), 1, "test")
	defer mb.Close()

	_, err := mb.Submit(context.Background(), effect.Request{Method: "BlockService:create"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMailboxSubmitRespectsContextCancellation(t *testing.T) {
	blocking := effect.DispatcherFunc(func(ctx context.Context, _ effect.Request) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	mb := effect.NewMailbox(blocking, 1, "test")
	defer mb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mb.Submit(ctx, effect.Request{Method: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcherFuncAdapts(t *testing.T) {
	var d effect.Dispatcher = effect.DispatcherFunc(func(_ context.Context, req effect.Request) (any, error) {
		return req.Method, nil
	})
	v, err := d.Dispatch(context.Background(), effect.Request{Method: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "ping", v)
}
