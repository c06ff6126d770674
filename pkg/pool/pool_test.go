package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4, 100)
	var counter int64
	for i := 0; i < 100; i++ {
		p.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	p.Stop()
	assert.Equal(t, int64(100), atomic.LoadInt64(&counter))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 3
	p := New(workers, 50)

	var mu sync.Mutex
	var active, peak int
	for i := 0; i < 50; i++ {
		p.Submit(func() {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	p.Stop()

	assert.LessOrEqual(t, peak, workers)
}

func TestPoolGuardsWorkerCount(t *testing.T) {
	p := New(0, 1)
	done := false
	p.Submit(func() { done = true })
	p.Stop()
	assert.True(t, done, "a pool created with zero workers still runs tasks")
}
