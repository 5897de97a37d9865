// Package dispatch is the dispatch glue: a fixed pool of worker
// goroutines pulling ready task guids off a buffered channel and
// running them through the task engine. It implements task.Dispatcher
// so the task engine's frontier zero-transition can hand it work
// without either package depending on the other's concrete worker
// shape.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/open-edt/edtrt"
)

var (
	// ErrPoolNotRunning rejects Enqueue before Start or after Stop.
	ErrPoolNotRunning = errors.New("dispatch: pool is not running")
	// ErrPoolAlreadyRunning rejects a second Start without an
	// intervening Stop.
	ErrPoolAlreadyRunning = errors.New("dispatch: pool is already running")
	// ErrQueueFull rejects Enqueue when the ready-task buffer is
	// saturated; spec.md §4.8 leaves scheduler policy out of scope, so
	// a full buffer is surfaced to the caller rather than silently
	// blocking the frontier zero-transition.
	ErrQueueFull = errors.New("dispatch: ready-task queue is full")
	// ErrRunnerNotSet rejects Start before a Runner has been supplied,
	// either at NewPool or via SetRunner.
	ErrRunnerNotSet = errors.New("dispatch: pool has no runner set")
)

// Runner executes one ready task to completion. task.Engine.Run
// satisfies this.
type Runner interface {
	Run(ctx context.Context, taskGuid edtrt.Guid) error
}

// Pool is a fixed-size worker pool over a buffered ready-task queue.
type Pool struct {
	mu       sync.RWMutex
	running  bool
	numW     int
	queue    chan edtrt.Guid
	stopChan chan struct{}
	wg       sync.WaitGroup

	runner Runner
	logger edtrt.Logger

	current map[int]edtrt.Guid
}

// Config controls pool sizing.
type Config struct {
	// Workers is the number of worker goroutines. Defaults to 1 if <= 0.
	Workers int
	// QueueSize bounds the ready-task buffer. Defaults to 1024 if <= 0.
	QueueSize int
}

// NewPool builds a pool that will run ready tasks through runner once
// started. runner may be nil at construction (set it later with
// SetRunner) to break a constructor cycle with whatever implements
// Runner and itself needs a reference to this Pool as its
// task.Dispatcher. logger may be nil, in which case dispatch events
// are dropped silently.
func NewPool(cfg Config, runner Runner, logger edtrt.Logger) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Pool{
		numW:    workers,
		queue:   make(chan edtrt.Guid, queueSize),
		runner:  runner,
		logger:  logger,
		current: make(map[int]edtrt.Guid, workers),
	}
}

// SetRunner supplies (or replaces) the Runner. Only legal before
// Start; the running goroutines read p.runner without a lock, so a
// post-Start swap would race.
func (p *Pool) SetRunner(runner Runner) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrPoolAlreadyRunning
	}
	p.runner = runner
	return nil
}

// Start launches the worker goroutines. ctx governs every Run call
// the pool makes for the remainder of its lifetime; cancelling ctx
// makes every worker return, but the pool still counts as running and
// Enqueue keeps accepting tasks until Stop is called.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrPoolAlreadyRunning
	}
	if p.runner == nil {
		p.mu.Unlock()
		return ErrRunnerNotSet
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	for id := 0; id < p.numW; id++ {
		p.wg.Add(1)
		go p.work(ctx, id)
	}
	return nil
}

// Stop signals every worker to drain and exit, then waits for them.
// Tasks already queued but not yet picked up are abandoned.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Enqueue implements task.Dispatcher: it is called exactly once per
// task, the instant its frontier reaches zero.
func (p *Pool) Enqueue(ctx context.Context, taskGuid edtrt.Guid) error {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if !running {
		return ErrPoolNotRunning
	}

	select {
	case p.queue <- taskGuid:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case g := <-p.queue:
			p.setCurrent(id, g)
			taskCtx := withTaskContext(ctx, id, p.numW, g)
			if err := p.runner.Run(taskCtx, g); err != nil && p.logger != nil {
				p.logger.Error("task run failed", "task", g.String(), "worker", id, "error", err)
			}
			p.setCurrent(id, edtrt.NilGuid)
		}
	}
}

func (p *Pool) setCurrent(id int, g edtrt.Guid) {
	p.mu.Lock()
	p.current[id] = g
	p.mu.Unlock()
}

// CurrentTaskOf reports the task guid worker id is currently
// executing, or edtrt.NilGuid if it is idle. Unlike CurrentTask, it
// needs no task-scoped context, so code outside a running task can
// call it.
func (p *Pool) CurrentTaskOf(workerID int) edtrt.Guid {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current[workerID]
}

// NumWorkers is numWorkers(): the fixed size of the pool.
func (p *Pool) NumWorkers() int {
	return p.numW
}
