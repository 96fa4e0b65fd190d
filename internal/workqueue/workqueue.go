// Package workqueue runs batches of short-lived work items in parallel and
// lets the submitting goroutine wait for them as a barrier.
package workqueue

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-octree/internal/logger"
)

// PriorityMax is the highest work item priority.
const PriorityMax uint32 = math.MaxUint32

// Item is one unit of work.
type Item struct {
	Priority uint32
	Work     func()
}

// Pool executes items on a bounded set of goroutines that persist across
// frames. Submit and WaitAll must be called from a single goroutine.
type Pool struct {
	workers int
	pool    worker.DynamicWorkerPool

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[uint32]int
	nextID  int
	closed  bool
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	Workers     int // 0 means NumCPU-1
	QueueSize   int
	IdleTimeout time.Duration
}

// DefaultWorkers returns the worker count used when none is configured:
// one less than the CPU count, leaving a core for the submitting goroutine.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// NewPool creates a worker pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = time.Second
	}

	p := &Pool{
		workers: cfg.Workers,
		pool:    worker.NewDynamicWorkerPool(cfg.Workers, cfg.QueueSize, cfg.IdleTimeout),
		pending: make(map[uint32]int),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// NumThreads returns the number of worker goroutines.
func (p *Pool) NumThreads() int {
	return p.workers
}

// Submit queues an item for execution. After Close the item runs on the
// calling goroutine.
func (p *Pool) Submit(item Item) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = run(item)
		return
	}
	p.pending[item.Priority]++
	id := p.nextID
	p.nextID++
	p.mu.Unlock()

	p.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer p.done(item.Priority)
			return nil, run(item)
		},
	})
}

// WaitAll blocks until every submitted item with a priority of at least
// priority has finished.
func (p *Pool) WaitAll(priority uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.pendingAtLeast(priority) > 0 {
		p.cond.Wait()
	}
}

// Close stops the worker goroutines. Pending items should be waited for
// first. Calling Close more than once is a no-op.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.pool.Stop()
}

func (p *Pool) pendingAtLeast(priority uint32) int {
	n := 0
	for prio, count := range p.pending {
		if prio >= priority {
			n += count
		}
	}
	return n
}

func (p *Pool) done(priority uint32) {
	p.mu.Lock()
	p.pending[priority]--
	if p.pending[priority] == 0 {
		delete(p.pending, priority)
	}
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Inline runs every item on the submitting goroutine. It stands in for a
// Pool in tests and single-threaded tools.
type Inline struct{}

// NumThreads returns zero: there are no worker goroutines.
func (Inline) NumThreads() int {
	return 0
}

// Submit runs the item immediately.
func (Inline) Submit(item Item) {
	_ = run(item)
}

// WaitAll returns immediately; every item already ran in Submit.
func (Inline) WaitAll(uint32) {}

// run executes an item, converting a panic into an error so a faulty item
// cannot wedge a WaitAll barrier.
func run(item Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("work item panicked: %v", r)
			logger.Error("work item panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	item.Work()
	return nil
}
