package component

import (
	"context"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
)

// Async runs op on its own goroutine with the unit's context, which is cancelled when
// the unit is destroyed. The result is handed back on the tick goroutine: then runs if
// the unit is still alive, otherwise release runs on a successful result so acquired
// resources are not leaked. release may be nil.
//
// Results arriving after Close are released on the goroutine that ran op.
func Async[T any](u *Unit, op func(ctx context.Context) (T, error), then func(T, error), release func(T)) {
	rt := u.rt
	h := u.handle
	ctx := u.ctx

	rt.queueMu.Lock()
	rt.inflight++
	rt.queueMu.Unlock()

	go func() {
		v, err := op(ctx)
		orphan := func() {
			if err == nil && release != nil {
				release(v)
			}
		}
		rt.complete(func() {
			if live, lerr := rt.unit(h, "Async"); lerr == nil && live.state != StateDestroyed {
				then(v, err)
				return
			}
			orphan()
		}, orphan)
	}()
}

// complete queues fn for the tick goroutine, or runs orphan at once when the
// runtime is closed and nothing will drain the queue again
func (rt *Runtime) complete(fn, orphan func()) {
	rt.queueMu.Lock()
	rt.inflight--
	if rt.closed {
		rt.queueMu.Unlock()
		orphan()
		return
	}
	rt.queue = append(rt.queue, fn)
	rt.queueMu.Unlock()
	rt.signal()
}

// Post queues fn to run on the tick goroutine. It is the only Runtime method safe to
// call from other goroutines. After Close, fn is dropped.
func (rt *Runtime) Post(fn func()) {
	rt.queueMu.Lock()
	if rt.closed {
		rt.queueMu.Unlock()
		return
	}
	rt.queue = append(rt.queue, fn)
	rt.queueMu.Unlock()
	rt.signal()
}

func (rt *Runtime) signal() {
	select {
	case rt.wake <- struct{}{}:
	default:
	}
}

// Wake receives a value whenever work is queued for the tick goroutine
func (rt *Runtime) Wake() <-chan struct{} {
	return rt.wake
}

// Drain runs queued continuations and returns how many ran
func (rt *Runtime) Drain() int {
	rt.queueMu.Lock()
	queue := rt.queue
	rt.queue = nil
	rt.queueMu.Unlock()

	for _, fn := range queue {
		fn()
	}
	return len(queue)
}

// Flush waits until no async operation is in flight and the queue is empty.
// Continuations that start new operations are waited for as well.
func (rt *Runtime) Flush(ctx context.Context) error {
	for {
		rt.queueMu.Lock()
		pending, queued := rt.inflight, len(rt.queue)
		rt.queueMu.Unlock()

		if queued > 0 {
			rt.Drain()
			continue
		}
		if pending == 0 {
			return nil
		}

		select {
		case <-rt.wake:
		case <-ctx.Done():
			return errors.WrapTransient(ctx.Err(), "Runtime", "Flush", "wait for async operations")
		}
	}
}
