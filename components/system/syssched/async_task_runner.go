package syssched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/open-control-systems/mdns-hub/components/status"
)

// AsyncTaskRunnerParams represents various options for the task runner.
type AsyncTaskRunnerParams struct {
	// UpdateInterval is how often the task is run.
	UpdateInterval time.Duration

	// ExitOnSuccess stops the runner after the first successful task run.
	ExitOnSuccess bool
}

// AsyncTaskRunner periodically runs task in the standalone goroutine.
type AsyncTaskRunner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	doneCh  chan struct{}
	task    Task
	handler ErrorHandler
	params  AsyncTaskRunnerParams

	mu      sync.Mutex
	started bool
}

// NewAsyncTaskRunner is an initialization of AsyncTaskRunner.
//
// Parameters:
//   - ctx - parent context, the runner stops when it's cancelled.
//   - task - task to run.
//   - handler - optional handler of the task errors.
//   - params - runner options.
func NewAsyncTaskRunner(
	ctx context.Context,
	task Task,
	handler ErrorHandler,
	params AsyncTaskRunnerParams,
) *AsyncTaskRunner {
	ctx, cancel := context.WithCancel(ctx)

	return &AsyncTaskRunner{
		ctx:     ctx,
		cancel:  cancel,
		doneCh:  make(chan struct{}),
		task:    task,
		handler: handler,
		params:  params,
	}
}

// Start begins asynchronous task processing.
func (r *AsyncTaskRunner) Start() error {
	if r.params.UpdateInterval <= 0 {
		return fmt.Errorf("async-task-runner: %w: invalid update interval: %s",
			status.StatusInvalidArg, r.params.UpdateInterval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("async-task-runner: %w: already started", status.StatusInvalidState)
	}

	r.started = true

	go r.run()

	return nil
}

// Stop ends asynchronous task processing.
//
// Remarks:
//   - Waits for the running task to finish.
func (r *AsyncTaskRunner) Stop() error {
	r.cancel()

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()

	if started {
		<-r.doneCh
	}

	return nil
}

func (r *AsyncTaskRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.params.UpdateInterval)
	defer ticker.Stop()

	if r.runTask() {
		return
	}

	for {
		select {
		case <-ticker.C:
			if r.runTask() {
				return
			}

		case <-r.ctx.Done():
			return
		}
	}
}

func (r *AsyncTaskRunner) runTask() bool {
	if err := r.task.Run(); err != nil {
		if r.handler != nil {
			r.handler.HandleError(err)
		}

		return false
	}

	return r.params.ExitOnSuccess
}
