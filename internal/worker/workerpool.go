package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrPoolClosed = errors.New("worker pool closed")

//go:generate mockgen -source=workerpool.go -destination=mock_workerpool.go -package=worker

type PoolI interface {
	AddTask(ctx context.Context, task Task) error
	Close()
}

type Task func() error

// Pool runs tasks on a fixed number of goroutines. Close stops intake and
// waits for queued tasks to finish.
type Pool struct {
	pool   chan Task
	group  errgroup.Group
	mu     sync.RWMutex
	closed bool
}

func NewPool(size int) *Pool {
	wp := &Pool{pool: make(chan Task, size)}

	for i := 0; i < size; i++ {
		wp.group.Go(wp.worker)
	}
	return wp
}

func (wp *Pool) worker() error {
	for task := range wp.pool {
		if err := task(); err != nil {
			zap.L().Error("Task execution failed", zap.Error(err))
		}
	}
	return nil
}

func (wp *Pool) AddTask(ctx context.Context, task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.pool <- task:
		return nil
	}
}

func (wp *Pool) Close() {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.pool)
	}
	wp.mu.Unlock()

	_ = wp.group.Wait()
}
