package table

import (
	"sync"

	"go.uber.org/zap"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/scheduling/workerpool"
)

// Pool acquires the table's worker pool. The first acquisition creates it;
// nested acquisitions share it. The pool is shut down when the last release
// function is called. Release functions are idempotent.
//
// With Workers set to 1 the pool is workerpool.Serial, so tasks run inline
// on the submitting goroutine.
func (t *Table) Pool() (workerpool.Pool, func(), error) {
	t.poolMu.Lock()
	defer t.poolMu.Unlock()

	if t.closed {
		return nil, nil, tferrors.ErrClosed
	}

	if t.pool == nil {
		t.pool = t.newPool()
		t.logger.Debug("worker pool created", zap.Int("workers", t.config.Workers))
	}
	t.poolRefs++
	pool := t.pool

	var once sync.Once
	release := func() {
		once.Do(t.releasePool)
	}
	return pool, release, nil
}

func (t *Table) newPool() workerpool.Pool {
	var pool workerpool.Pool
	if t.config.Workers <= 1 {
		pool = workerpool.Serial()
	} else {
		pool = workerpool.NewWithConfig(workerpool.Config{
			WorkerCount:    t.config.Workers,
			QueueSize:      t.config.Workers,
			DiscardResults: true,
		})
	}
	if t.config.Metrics != nil {
		pool = workerpool.Instrument(pool, t.config.PoolName, t.config.Metrics)
	}
	return pool
}

func (t *Table) releasePool() {
	t.poolMu.Lock()
	defer t.poolMu.Unlock()

	t.poolRefs--
	if t.poolRefs > 0 || t.pool == nil {
		return
	}
	<-t.pool.Shutdown()
	t.pool = nil
	t.logger.Debug("worker pool shut down")
}

// PoolActive reports whether a worker pool is currently held.
func (t *Table) PoolActive() bool {
	t.poolMu.Lock()
	defer t.poolMu.Unlock()
	return t.pool != nil
}

// Close shuts down any held worker pool and rejects further acquisitions.
// Close is idempotent.
func (t *Table) Close() error {
	t.poolMu.Lock()
	defer t.poolMu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.pool != nil {
		<-t.pool.Shutdown()
		t.pool = nil
		t.poolRefs = 0
	}
	return nil
}
