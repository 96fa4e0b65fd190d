package workqueue

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInlineRunsImmediately(t *testing.T) {
	var q Inline
	ran := 0
	q.Submit(Item{Work: func() { ran++ }})
	require.Equal(t, 1, ran)
	require.Equal(t, 0, q.NumThreads())
	q.WaitAll(PriorityMax)
}

func TestInlineRecoversPanic(t *testing.T) {
	var q Inline
	require.NotPanics(t, func() {
		q.Submit(Item{Work: func() { panic("boom") }})
	})
}

func TestPoolWaitAllIsABarrier(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 4, QueueSize: 16, IdleTimeout: 100 * time.Millisecond})
	defer p.Close()
	require.Equal(t, 4, p.NumThreads())

	var count atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(Item{Priority: PriorityMax, Work: func() {
			time.Sleep(time.Millisecond)
			count.Add(1)
		}})
	}
	p.WaitAll(PriorityMax)
	require.Equal(t, int64(100), count.Load())

	// The pool is reusable for the next frame.
	for i := 0; i < 10; i++ {
		p.Submit(Item{Priority: PriorityMax, Work: func() { count.Add(1) }})
	}
	p.WaitAll(PriorityMax)
	require.Equal(t, int64(110), count.Load())
}

func TestPoolSurvivesPanickingItem(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 2})
	defer p.Close()

	var count atomic.Int64
	p.Submit(Item{Priority: PriorityMax, Work: func() { panic("bad drawable") }})
	p.Submit(Item{Priority: PriorityMax, Work: func() { count.Add(1) }})
	p.WaitAll(PriorityMax)

	require.Equal(t, int64(1), count.Load())
}

func TestPoolWaitAllIgnoresLowerPriorities(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 2})
	defer p.Close()

	release := make(chan struct{})
	var high atomic.Bool
	p.Submit(Item{Priority: 1, Work: func() { <-release }})
	p.Submit(Item{Priority: PriorityMax, Work: func() { high.Store(true) }})

	p.WaitAll(PriorityMax)
	require.True(t, high.Load())

	close(release)
	p.WaitAll(0)
}

func TestDefaultWorkers(t *testing.T) {
	require.GreaterOrEqual(t, DefaultWorkers(), 1)
	p := NewPool(PoolConfig{})
	defer p.Close()
	require.Equal(t, DefaultWorkers(), p.NumThreads())
}

func TestPoolClose(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 2})

	var count atomic.Int64
	p.Submit(Item{Priority: PriorityMax, Work: func() { count.Add(1) }})
	p.WaitAll(PriorityMax)

	p.Close()
	p.Close()

	// Items submitted after Close still run, on the caller.
	p.Submit(Item{Priority: PriorityMax, Work: func() { count.Add(1) }})
	require.Equal(t, int64(2), count.Load())
	p.WaitAll(PriorityMax)
}
