package paging

import (
	"context"
	"time"
)

// Scheduler runs fn once after delay unless ctx is canceled first.
// Implementations must run fn on the goroutine that owns the View, or
// arrange for the owner to serialize it with its own calls.
type Scheduler interface {
	Schedule(ctx context.Context, delay time.Duration, fn func())
}

// TimerScheduler arms a time.AfterFunc per job and stops the timer when the
// job's context is canceled.
//
// Dispatch receives the callback when the timer fires. A nil Dispatch runs
// the callback on the timer goroutine, which is only safe when the owner
// does not touch the View concurrently. UI hosts set Dispatch to post the
// callback onto their event loop.
type TimerScheduler struct {
	Dispatch func(func())
}

// Schedule implements Scheduler.
func (s TimerScheduler) Schedule(ctx context.Context, delay time.Duration, fn func()) {
	if ctx.Err() != nil {
		return
	}
	t := time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if s.Dispatch != nil {
			s.Dispatch(fn)
			return
		}
		fn()
	})
	context.AfterFunc(ctx, func() { t.Stop() })
}

// QueueScheduler arms a timer per job and hands due jobs to the owner on a
// channel. It is the default Scheduler of a View: the owner receives from
// View.Deferred in its event loop, or calls View.RunDeferred, and the
// recomputation runs on the owner's goroutine.
type QueueScheduler struct {
	c chan func()
}

// NewQueueScheduler returns a QueueScheduler with an empty queue.
func NewQueueScheduler() *QueueScheduler {
	return &QueueScheduler{c: make(chan func(), 1)}
}

// C returns the channel due jobs are delivered on.
func (q *QueueScheduler) C() <-chan func() { return q.c }

// Schedule implements Scheduler. A job canceled before the owner receives it
// is dropped.
func (q *QueueScheduler) Schedule(ctx context.Context, delay time.Duration, fn func()) {
	if ctx.Err() != nil {
		return
	}
	t := time.AfterFunc(delay, func() {
		select {
		case q.c <- fn:
		case <-ctx.Done():
		}
	})
	context.AfterFunc(ctx, func() { t.Stop() })
}

// Drain runs every job already queued and returns how many ran.
func (q *QueueScheduler) Drain() int {
	n := 0
	for {
		select {
		case fn := <-q.c:
			fn()
			n++
		default:
			return n
		}
	}
}

// Deferred returns the channel of due debounced jobs when the View uses its
// default scheduler, and nil otherwise. The owner must call each received
// function.
func (v *View[T]) Deferred() <-chan func() {
	if v.queue == nil {
		return nil
	}
	return v.queue.C()
}

// RunDeferred runs the debounced jobs that are due and returns how many ran.
// It does nothing when a custom Scheduler is configured.
func (v *View[T]) RunDeferred() int {
	if v.queue == nil {
		return 0
	}
	return v.queue.Drain()
}

// pendingJob is the cancellation token of the one outstanding debounced
// recomputation.
type pendingJob struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// cancelPending cancels the outstanding debounced recomputation, if any.
func (v *View[T]) cancelPending() {
	if v.pending == nil {
		return
	}
	v.pending.cancel()
	v.pending = nil
}

// debounce replaces the pending job with run, delayed by delay. The old token
// is canceled and the new one installed before the new job is scheduled, so a
// job that was already handed to the owner re-checks its own token and drops
// out.
func (v *View[T]) debounce(delay time.Duration, run func()) {
	v.cancelPending()

	ctx, cancel := context.WithCancel(context.Background())
	job := &pendingJob{ctx: ctx, cancel: cancel}
	v.pending = job

	v.setSearching(true)
	v.log.V(1).Info("search debounced", "delay", delay.String())

	v.scheduler.Schedule(ctx, delay, func() {
		if job.ctx.Err() != nil || v.pending != job {
			return
		}
		v.pending = nil
		job.cancel()
		run()
		v.setSearching(false)
	})
}

func (v *View[T]) setSearching(on bool) {
	if v.searching == on {
		return
	}
	v.searching = on
	v.notify(PropIsSearching)
}

// Close cancels a pending debounced search. The View stays usable.
func (v *View[T]) Close() error {
	v.cancelPending()
	v.setSearching(false)
	return nil
}
