package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// TaskState is the lifecycle of an async evaluation.
type TaskState int32

const (
	TaskIdle TaskState = iota
	TaskRunning
	TaskCompleted
)

func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "idle"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	}
	return fmt.Sprintf("TaskState(%d)", int32(s))
}

// AsyncWorker is a worker whose evaluation happens in the background.
//
// Run on an idle task starts one background evaluation and returns no
// value. Run on a running task returns no value. Run on a completed task
// returns the cached result, the same one on every call, until Reset.
// A holder that reads a completed result must call Reset before the next
// evaluation, otherwise it keeps reading the old value.
type AsyncWorker interface {
	Worker
	State() TaskState
	Reset()
}

// task is the tri-state slot shared by both strategies. One background
// goroutine writes it, the tick loop reads it.
type task struct {
	mu     sync.Mutex
	state  TaskState
	result any
	err    error
}

// poll advances the state for one Run call. start is true when the
// caller must launch the background evaluation.
func (t *task) poll() (start bool, result any, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case TaskIdle:
		t.state = TaskRunning
		return true, nil, nil
	case TaskRunning:
		return false, nil, nil
	}

	// Failures are reported once and never cached as a value.
	if t.err != nil {
		err = t.err
		t.state, t.result, t.err = TaskIdle, nil, nil
		return false, nil, err
	}
	return false, t.result, nil
}

func (t *task) complete(result any, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state, t.result, t.err = TaskCompleted, result, err
}

// State returns the current state.
func (t *task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reset clears the result and returns a completed task to idle.
// A running task is left alone; its evaluation cannot be cancelled.
func (t *task) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TaskRunning {
		return
	}
	t.state, t.result, t.err = TaskIdle, nil, nil
}

func recoverInto(t *task) {
	if r := recover(); r != nil {
		t.complete(nil, fmt.Errorf("async evaluation panicked: %v", r))
	}
}

// PollAsync runs a synchronous worker in a background goroutine. It suits
// sources that must be actively scanned, like the process table.
type PollAsync struct {
	task
	worker Worker
	logger *zap.Logger
}

// NewPollAsync wraps w.
func NewPollAsync(w Worker, logger *zap.Logger) *PollAsync {
	return &PollAsync{worker: w, logger: logger}
}

func (a *PollAsync) Run(ctx context.Context, args domain.Args) (any, error) {
	start, result, err := a.poll()
	if start {
		go a.handle(context.WithoutCancel(ctx), args)
	}
	return result, err
}

func (a *PollAsync) handle(ctx context.Context, args domain.Args) {
	defer recoverInto(&a.task)
	result, err := Evaluate(ctx, a.logger, a.worker, args)
	a.complete(result, err)
}

func (a *PollAsync) Traits() Traits {
	return Traits{SideEffects: a.worker.Traits().SideEffects}
}

// Pusher starts an external call that answers through a callback.
// Push returns once the call is issued; reply or fail is invoked later,
// from any goroutine.
type Pusher interface {
	Push(ctx context.Context, args domain.Args, reply func(any), fail func(error)) error
	Traits() Traits
}

// PushAsync issues a callback-driven call in a background goroutine and
// waits for the callback, bounded by a timeout. It suits event-driven
// sources such as a human answering a prompt.
type PushAsync struct {
	task
	pusher  Pusher
	timeout time.Duration
	logger  *zap.Logger
}

// NewPushAsync wraps p. A timeout <= 0 means DefaultPushTimeout.
func NewPushAsync(p Pusher, timeout time.Duration, logger *zap.Logger) *PushAsync {
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	return &PushAsync{pusher: p, timeout: timeout, logger: logger}
}

func (a *PushAsync) Run(ctx context.Context, args domain.Args) (any, error) {
	start, result, err := a.poll()
	if start {
		go a.handle(context.WithoutCancel(ctx), args)
	}
	return result, err
}

type outcome struct {
	value any
	err   error
}

func (a *PushAsync) handle(ctx context.Context, args domain.Args) {
	defer recoverInto(&a.task)

	// Closes the external call once it replied or timed out.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Single slot per evaluation: the first callback wins, late ones are dropped.
	done := make(chan outcome, 1)
	reply := func(v any) {
		select {
		case done <- outcome{value: v}:
		default:
		}
	}
	fail := func(err error) {
		select {
		case done <- outcome{err: err}:
		default:
		}
	}

	a.logger.Debug("pushing", zap.Any("args", args))
	if err := a.pusher.Push(ctx, args, reply, fail); err != nil {
		a.logger.Debug("push failed", zap.Error(err))
		a.complete(nil, err)
		return
	}

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		a.logger.Debug("reply", zap.Any("result", o.value), zap.Error(o.err))
		a.complete(o.value, o.err)
	case <-timer.C:
		a.logger.Warn("no reply before timeout", zap.Duration("timeout", a.timeout))
		a.complete(nil, domain.ErrTimeout)
	}
}

func (a *PushAsync) Traits() Traits {
	return Traits{SideEffects: a.pusher.Traits().SideEffects}
}

var (
	_ AsyncWorker = (*PollAsync)(nil)
	_ AsyncWorker = (*PushAsync)(nil)
)
