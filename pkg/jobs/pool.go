package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of work within a batch.
type Task struct {
	ID      string
	Index   int
	Payload interface{}
}

// Handler processes a task.
type Handler func(context.Context, Task) error

// PoolConfig configures worker pool behaviour.
type PoolConfig struct {
	Workers int
	Logger  *zap.Logger
}

// Pool runs finite batches of tasks over a fixed number of goroutines.
type Pool struct {
	name    string
	workers int
	logger  *zap.Logger
}

// NewPool builds a pool. Workers defaults to 1.
func NewPool(name string, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pool{name: name, workers: cfg.Workers, logger: cfg.Logger}
}

// Workers reports the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Run processes every task and returns one error slot per task, in task order.
// A failing or panicking task never stops the rest of the batch. Tasks not yet
// started when ctx is cancelled get ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task, handler Handler) []error {
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}
	start := time.Now()

	workers := p.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	queue := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				errs[idx] = p.run(ctx, tasks[idx], handler)
			}
		}()
	}

	next := 0
feed:
	for ; next < len(tasks); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case queue <- next:
		}
	}
	close(queue)
	wg.Wait()

	for i := next; i < len(tasks); i++ {
		errs[i] = ctx.Err()
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	p.logger.Sugar().Debugw("batch finished", "pool", p.name, "tasks", len(tasks), "failed", failed, "workers", workers, "duration", time.Since(start))
	return errs
}

func (p *Pool) run(ctx context.Context, task Task, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.ID, r)
			p.logger.Sugar().Errorw("task panicked", "pool", p.name, "task_id", task.ID, "panic", r)
		}
	}()
	if err := handler(ctx, task); err != nil {
		p.logger.Sugar().Warnw("task failed", "pool", p.name, "task_id", task.ID, "error", err)
		return err
	}
	return nil
}
