package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Transport performs one request. Implementations must honour ctx.
type Transport interface {
	Do(ctx context.Context, req *Request) Response
}

type completion struct {
	req  *Request
	resp Response
}

// Dispatcher moves requests from the queue to a fixed pool of workers and
// hands completions back to the frame loop.
//
// Frame loop side: Drain once per frame to dispatch at most one request,
// Poll once per frame to run handlers of finished requests. Neither blocks.
// Worker side: perform the call, append to the inbox. Workers never touch
// handler state.
type Dispatcher struct {
	queue     *Queue
	jobs      chan *Request
	transport Transport
	timeout   time.Duration

	inboxMu sync.Mutex
	inbox   []completion

	inflight atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *zap.Logger
}

// NewDispatcher starts workers goroutines. timeout bounds every request;
// zero disables the bound.
func NewDispatcher(t Transport, workers int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:     NewQueue(),
		jobs:      make(chan *Request),
		transport: t,
		timeout:   timeout,
		inbox:     make([]completion, 0, 16),
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Root returns the dispatcher-wide context. Requests on it are only dropped
// by Close.
func (d *Dispatcher) Root() context.Context { return d.ctx }

// NewScope returns a context whose cancellation drops every request tagged
// with it, whether queued, in flight, or completed but not yet polled.
func (d *Dispatcher) NewScope() (context.Context, context.CancelFunc) {
	return context.WithCancel(d.ctx)
}

// Enqueue appends req to the FIFO. Safe from any goroutine.
func (d *Dispatcher) Enqueue(req *Request) {
	if req.Ctx == nil {
		req.Ctx = d.ctx
	}
	d.queue.Push(req)
}

// Drain pops one request and hands it to an idle worker. When every worker
// is busy the request goes back to the head of the queue and waits for a
// later frame. Reports whether a request was dispatched.
func (d *Dispatcher) Drain() bool {
	req := d.queue.Pop()
	if req == nil {
		return false
	}
	if req.Ctx.Err() != nil {
		d.log.Debug("丟棄已取消的請求", zap.String("id", req.ID), zap.String("path", req.Path))
		return false
	}
	d.inflight.Add(1)
	select {
	case d.jobs <- req:
		return true
	default:
		d.inflight.Add(-1)
		d.queue.PushFront(req)
		return false
	}
}

// Poll runs the handlers of every completed request on the calling
// goroutine and returns how many ran.
func (d *Dispatcher) Poll() int {
	d.inboxMu.Lock()
	done := d.inbox
	d.inbox = make([]completion, 0, cap(done))
	d.inboxMu.Unlock()

	n := 0
	for _, c := range done {
		if c.req.Ctx.Err() != nil {
			d.log.Debug("丟棄過期回應", zap.String("id", c.req.ID), zap.String("path", c.req.Path))
			continue
		}
		if c.req.Handler != nil {
			c.req.Handler(c.resp)
		}
		n++
	}
	return n
}

// IsLoading reports whether requests are queued, in flight, or waiting for
// Poll.
func (d *Dispatcher) IsLoading() bool {
	// inflight first: a worker posts its completion before it decrements.
	if d.inflight.Load() > 0 || d.queue.Len() > 0 {
		return true
	}
	d.inboxMu.Lock()
	defer d.inboxMu.Unlock()
	return len(d.inbox) > 0
}

const flushInterval = 5 * time.Millisecond

// Flush pumps the queue and runs completion handlers on the calling
// goroutine until nothing is queued, in flight, or waiting, or until grace
// has passed. Requests enqueued by those handlers are flushed too. Call it on
// the frame loop before Close. Reports whether everything finished.
func (d *Dispatcher) Flush(grace time.Duration) bool {
	deadline := time.Now().Add(grace)
	for {
		d.Drain()
		d.Poll()
		if !d.IsLoading() {
			return true
		}
		if !time.Now().Before(deadline) {
			d.log.Warn("關閉前仍有未完成的請求",
				zap.Int("pending", d.Pending()),
				zap.Int32("inflight", d.inflight.Load()))
			return false
		}
		time.Sleep(flushInterval)
	}
}

// Pending returns the number of queued, not yet dispatched requests.
func (d *Dispatcher) Pending() int { return d.queue.Len() }

// Close cancels every request and waits for the workers to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case req := <-d.jobs:
			d.run(req)
		}
	}
}

func (d *Dispatcher) run(req *Request) {
	defer d.inflight.Add(-1)

	ctx := req.Ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	start := time.Now()
	resp := d.transport.Do(ctx, req)
	d.log.Debug("API",
		zap.String("id", req.ID),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	d.post(req, resp)
}

// post stores a completion for the next Poll.
func (d *Dispatcher) post(req *Request, resp Response) {
	d.inboxMu.Lock()
	d.inbox = append(d.inbox, completion{req: req, resp: resp})
	d.inboxMu.Unlock()
}
