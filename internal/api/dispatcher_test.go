package api

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gateTransport blocks every call until release is closed.
type gateTransport struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gateTransport) Do(ctx context.Context, req *Request) Response {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return Response{Err: ErrCanceled}
	}
	return Response{Success: true, StatusCode: 200, Data: []byte(req.Path)}
}

func TestQueueFIFOAndPushFront(t *testing.T) {
	q := NewQueue()
	q.Push(&Request{Path: "/a"})
	q.Push(&Request{Path: "/b"})

	first := q.Pop()
	require.Equal(t, "/a", first.Path)
	q.PushFront(first)

	assert.Equal(t, "/a", q.Pop().Path)
	assert.Equal(t, "/b", q.Pop().Path)
	assert.Nil(t, q.Pop())
}

func drainOne(t *testing.T, d *Dispatcher) {
	t.Helper()
	require.Eventually(t, d.Drain, time.Second, time.Millisecond)
}

func TestDrainDispatchesOnePerCall(t *testing.T) {
	g := &gateTransport{release: make(chan struct{})}
	d := NewDispatcher(g, 4, 0, zap.NewNop())
	defer d.Close()

	for _, p := range []string{"/1", "/2", "/3"} {
		d.Enqueue(&Request{Path: p})
	}
	drainOne(t, d)
	assert.Equal(t, 2, d.Pending())
	drainOne(t, d)
	assert.Equal(t, 1, d.Pending())
	close(g.release)
}

func TestSaturatedPoolKeepsRequestQueued(t *testing.T) {
	g := &gateTransport{release: make(chan struct{})}
	d := NewDispatcher(g, 1, 0, zap.NewNop())
	defer d.Close()

	d.Enqueue(&Request{Path: "/first"})
	d.Enqueue(&Request{Path: "/second"})
	drainOne(t, d)
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)

	assert.False(t, d.Drain(), "only worker is busy")
	assert.Equal(t, 1, d.Pending())
	assert.Equal(t, "/second", d.queue.Pop().Path, "request returned to the head")

	close(g.release)
}

func TestHandlersRunOnlyDuringPoll(t *testing.T) {
	g := &gateTransport{release: make(chan struct{})}
	close(g.release)
	d := NewDispatcher(g, 2, 0, zap.NewNop())
	defer d.Close()

	var got []string
	for _, p := range []string{"/a", "/b"} {
		d.Enqueue(&Request{Path: p, Handler: func(r Response) { got = append(got, string(r.Data)) }})
	}
	drainOne(t, d)
	drainOne(t, d)

	require.Eventually(t, func() bool {
		d.inboxMu.Lock()
		defer d.inboxMu.Unlock()
		return len(d.inbox) == 2
	}, time.Second, time.Millisecond)
	assert.Empty(t, got, "no handler before Poll")
	assert.True(t, d.IsLoading(), "completions still waiting")

	assert.Equal(t, 2, d.Poll())
	assert.ElementsMatch(t, []string{"/a", "/b"}, got)
	assert.False(t, d.IsLoading())
}

func TestCanceledScopeDropsQueuedAndCompleted(t *testing.T) {
	g := &gateTransport{release: make(chan struct{})}
	close(g.release)
	d := NewDispatcher(g, 1, 0, zap.NewNop())
	defer d.Close()

	called := 0
	ctx, cancel := d.NewScope()
	d.Enqueue(&Request{Path: "/done", Ctx: ctx, Handler: func(Response) { called++ }})
	drainOne(t, d)
	require.Eventually(t, func() bool { return d.inflight.Load() == 0 }, time.Second, time.Millisecond)

	d.Enqueue(&Request{Path: "/queued", Ctx: ctx, Handler: func(Response) { called++ }})
	cancel()

	assert.False(t, d.Drain(), "canceled request is not dispatched")
	assert.Zero(t, d.Pending())
	assert.Zero(t, d.Poll())
	assert.Zero(t, called)
}

func TestTimeoutBoundsRequest(t *testing.T) {
	g := &gateTransport{release: make(chan struct{})}
	d := NewDispatcher(g, 1, 20*time.Millisecond, zap.NewNop())
	defer d.Close()

	var resp *Response
	d.Enqueue(&Request{Path: "/slow", Handler: func(r Response) { resp = &r }})
	drainOne(t, d)
	require.Eventually(t, func() bool {
		d.Poll()
		return resp != nil
	}, time.Second, 5*time.Millisecond)
	assert.False(t, resp.Success)
	assert.Error(t, resp.Err)
}

func TestFlushFinishesQueuedAndFollowUps(t *testing.T) {
	g := &gateTransport{release: make(chan struct{})}
	d := NewDispatcher(g, 1, 0, zap.NewNop())
	defer d.Close()

	var got []string
	record := func(r Response) { got = append(got, string(r.Data)) }
	d.Enqueue(&Request{Path: "/end", Handler: func(r Response) {
		record(r)
		d.Enqueue(&Request{Path: "/after", Handler: record})
	}})
	d.Enqueue(&Request{Path: "/save", Handler: record})

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(g.release)
	}()
	require.True(t, d.Flush(2*time.Second))
	assert.Equal(t, []string{"/end", "/save", "/after"}, got)
	assert.False(t, d.IsLoading())
}

func TestFlushGivesUpAfterGrace(t *testing.T) {
	g := &gateTransport{release: make(chan struct{})}
	d := NewDispatcher(g, 1, 0, zap.NewNop())
	defer d.Close()
	defer close(g.release)

	called := false
	d.Enqueue(&Request{Path: "/stuck", Handler: func(Response) { called = true }})

	start := time.Now()
	assert.False(t, d.Flush(30*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.False(t, called)
	assert.True(t, d.IsLoading())
}

func TestFlushIdleReturnsAtOnce(t *testing.T) {
	d := NewDispatcher(&gateTransport{release: make(chan struct{})}, 1, 0, zap.NewNop())
	defer d.Close()
	assert.True(t, d.Flush(0))
}
