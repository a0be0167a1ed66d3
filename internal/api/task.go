package api

import (
	"context"
	"sync"

	"github.com/mobil-koeln/sunmap/internal/models"
)

// TaskState is the lifecycle state of a Task.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskSettled
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskSettled:
		return "settled"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FetchFunc performs the work behind a Task.
type FetchFunc func(ctx context.Context) (*models.RawResponse, error)

// Task is one outstanding request. It settles at most once; once cancelled,
// its eventual completion is discarded and Done never closes.
type Task struct {
	URL      string
	Endpoint string

	cancel   context.CancelFunc
	done     chan struct{}
	finished chan struct{}

	mu     sync.Mutex
	state  TaskState
	result *models.RawResponse
	err    error
}

// StartTask runs fn on its own goroutine under a child context of ctx.
func StartTask(ctx context.Context, url, endpoint string, fn FetchFunc) *Task {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{
		URL:      url,
		Endpoint: endpoint,
		cancel:   cancel,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	go func() {
		defer cancel()
		resp, err := fn(taskCtx)
		t.settle(resp, err)
	}()

	return t
}

func (t *Task) settle(resp *models.RawResponse, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TaskPending {
		return
	}
	t.state = TaskSettled
	t.result = resp
	t.err = err
	close(t.done)
	close(t.finished)
}

// Cancel aborts a pending task. It returns true only for the call that
// actually cancelled it.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	if t.state != TaskPending {
		t.mu.Unlock()
		return false
	}
	t.state = TaskCancelled
	t.err = ErrCancelled
	close(t.finished)
	t.mu.Unlock()

	t.cancel()
	return true
}

// Done is closed when the task settles. It is never closed for a cancelled task.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Finished is closed once the task leaves TaskPending, by settling or by Cancel.
func (t *Task) Finished() <-chan struct{} {
	return t.finished
}

// State returns the current lifecycle state.
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns the settled response and error. A pending task returns
// (nil, nil); a cancelled one returns ErrCancelled.
func (t *Task) Result() (*models.RawResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}
