// Package workerpool runs serialized analysis requests on a fixed set of
// background goroutines. Requests and responses are correlated by id.
//
// Cancellation is best-effort: when a caller's context ends its listener is
// detached, but a job already handed to a worker runs to completion and its
// response is dropped.
package workerpool

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"sprawlstats/domain/core"
	"sprawlstats/internal"
	"sprawlstats/ports"
)

// Handler executes one payload and returns the encoded response
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// Options configures a Pool
type Options struct {
	Workers   int
	QueueSize int
	Logger    *internal.Logger
}

type job struct {
	req      ports.OffloadRequest
	enqueued time.Time
}

// Pool is a fixed-size worker pool implementing ports.Offloader
type Pool struct {
	handler Handler
	options Options
	log     *internal.Logger

	state   sync.RWMutex
	open    bool
	queue   chan job
	workers sync.WaitGroup

	mu      sync.Mutex
	pending map[string]chan ports.OffloadResponse
}

var _ ports.Offloader = (*Pool)(nil)

// New creates a stopped pool. Workers defaults to runtime.NumCPU().
func New(handler Handler, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 4
	}
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	return &Pool{
		handler: handler,
		options: opts,
		log:     opts.Logger.With("WorkerPool"),
		pending: make(map[string]chan ports.OffloadResponse),
	}
}

// Open starts the workers. Calling Open on an open pool is a no-op.
func (p *Pool) Open() {
	p.state.Lock()
	defer p.state.Unlock()
	if p.open {
		return
	}
	p.queue = make(chan job, p.options.QueueSize)
	p.open = true
	for i := 0; i < p.options.Workers; i++ {
		p.workers.Add(1)
		go p.run(i, p.queue)
	}
	p.log.Info("started %d workers (queue=%d)", p.options.Workers, p.options.QueueSize)
}

// Close stops accepting work, drains queued jobs and waits for the workers
func (p *Pool) Close() {
	p.state.Lock()
	if !p.open {
		p.state.Unlock()
		return
	}
	p.open = false
	close(p.queue)
	p.state.Unlock()

	p.workers.Wait()
	p.log.Info("stopped")
}

// Available reports whether the pool accepts work
func (p *Pool) Available() bool {
	p.state.RLock()
	defer p.state.RUnlock()
	return p.open
}

// Workers returns the configured worker count
func (p *Pool) Workers() int {
	return p.options.Workers
}

// Submit enqueues req and waits for the matching response. A context deadline
// is reported as core.ErrTimeout; the job itself is not cancelled.
func (p *Pool) Submit(ctx context.Context, req ports.OffloadRequest) (ports.OffloadResponse, error) {
	if req.ID == "" {
		return ports.OffloadResponse{}, core.NewParameterError("request id", "must not be empty")
	}

	reply := make(chan ports.OffloadResponse, 1)
	p.mu.Lock()
	if _, dup := p.pending[req.ID]; dup {
		p.mu.Unlock()
		return ports.OffloadResponse{}, fmt.Errorf("request %s already in flight", req.ID)
	}
	p.pending[req.ID] = reply
	pendingRequests.Inc()
	p.mu.Unlock()

	if err := p.enqueue(ctx, req); err != nil {
		p.detach(req.ID)
		return ports.OffloadResponse{}, err
	}

	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		if p.detach(req.ID) {
			detachedTotal.Inc()
			p.log.Debug("request %s detached: %v", req.ID, ctx.Err())
		}
		return ports.OffloadResponse{}, contextError(ctx)
	}
}

func (p *Pool) enqueue(ctx context.Context, req ports.OffloadRequest) error {
	p.state.RLock()
	defer p.state.RUnlock()
	if !p.open {
		return core.ErrPoolClosed
	}
	select {
	case p.queue <- job{req: req, enqueued: time.Now()}:
		queueDepth.Inc()
		return nil
	case <-ctx.Done():
		return contextError(ctx)
	}
}

// detach removes the listener for id and reports whether one was present
func (p *Pool) detach(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[id]; !ok {
		return false
	}
	delete(p.pending, id)
	pendingRequests.Dec()
	return true
}

func (p *Pool) run(worker int, queue <-chan job) {
	defer p.workers.Done()
	for j := range queue {
		queueDepth.Dec()
		p.log.Trace("worker %d picked %s after %s", worker, j.req.ID, time.Since(j.enqueued))

		start := time.Now()
		resp := p.execute(j.req)
		jobDuration.Observe(time.Since(start).Seconds())

		p.mu.Lock()
		reply, ok := p.pending[j.req.ID]
		if ok {
			delete(p.pending, j.req.ID)
			pendingRequests.Dec()
		}
		p.mu.Unlock()

		switch {
		case !ok:
			jobsTotal.WithLabelValues("dropped").Inc()
		case resp.Err != "":
			jobsTotal.WithLabelValues("error").Inc()
			reply <- resp
		default:
			jobsTotal.WithLabelValues("ok").Inc()
			reply <- resp
		}
	}
}

func (p *Pool) execute(req ports.OffloadRequest) (resp ports.OffloadResponse) {
	resp.ID = req.ID
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker panic on %s: %v", req.ID, r)
			resp.Payload = nil
			resp.Err = fmt.Sprintf("worker panic: %v", r)
		}
	}()

	payload, err := p.handler(context.Background(), req.Payload)
	if err != nil {
		resp.Err = err.Error()
		return resp
	}
	resp.Payload = payload
	return resp
}

func contextError(ctx context.Context) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", core.ErrTimeout, ctx.Err())
	}
	return ctx.Err()
}
