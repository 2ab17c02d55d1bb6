// internal/pkg/async/pool.go
package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrTimeout marks a task whose soft timeout elapsed before it finished.
	ErrTimeout = errors.New("task timed out")
	// ErrPanic marks a task that panicked.
	ErrPanic = errors.New("task panicked")
)

type Task struct {
	Name string
	// Timeout is a soft limit: once it elapses the result is abandoned, the
	// task itself keeps running until it returns. Zero means no limit.
	Timeout time.Duration
	Execute func(ctx context.Context) (interface{}, error)
}

type Result struct {
	Name    string
	Data    interface{}
	Err     error
	Elapsed time.Duration
}

// Run executes a single task, converting panics and an elapsed soft timeout
// into errors. It never panics itself.
func Run(ctx context.Context, task Task) Result {
	start := time.Now()
	done := make(chan Result, 1)

	taskCtx := ctx
	var cancel context.CancelFunc = func() {}
	if task.Timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, task.Timeout)
	}
	defer cancel()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Result{Name: task.Name, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		data, err := task.Execute(taskCtx)
		done <- Result{Name: task.Name, Data: data, Err: err}
	}()

	var res Result
	if task.Timeout > 0 {
		timer := time.NewTimer(task.Timeout)
		defer timer.Stop()
		select {
		case res = <-done:
		case <-timer.C:
			res = Result{Name: task.Name, Err: ErrTimeout}
		case <-ctx.Done():
			res = Result{Name: task.Name, Err: ctx.Err()}
		}
	} else {
		select {
		case res = <-done:
		case <-ctx.Done():
			res = Result{Name: task.Name, Err: ctx.Err()}
		}
	}
	res.Elapsed = time.Since(start)
	return res
}

type Pool struct {
	workerCount int
}

// NewPool creates a pool; a non-positive workerCount runs one worker per task.
func NewPool(workerCount int) *Pool {
	return &Pool{workerCount: workerCount}
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range tasks {
		results <- Run(ctx, task)
	}
}

// Execute runs every task and waits for all of them. Each task yields exactly
// one Result, so the returned map always has an entry per task name.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	var wg sync.WaitGroup
	results := make(map[string]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	workers := p.workerCount
	if workers <= 0 || workers > len(tasks) {
		workers = len(tasks)
	}

	queue := make(chan Task, len(tasks))
	out := make(chan Result, len(tasks))

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(ctx, queue, out, &wg)
	}

	// Send tasks
	for _, task := range tasks {
		queue <- task
	}
	close(queue)

	// Collect results
	for i := 0; i < len(tasks); i++ {
		result := <-out
		results[result.Name] = result
	}

	wg.Wait()
	close(out)

	return results
}
