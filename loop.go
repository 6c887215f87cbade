package dust

import (
	"context"
	"sync"
)

// loop runs the continuations of one render on a single goroutine.
//
// Deferreds, streams and loaders complete on arbitrary goroutines; they
// only ever post to the loop, and the chunk list is touched by the
// goroutine executing run. Tasks run in the order they were posted.
type loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newLoop() *loop {
	return &loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// post queues fn. Posting to a stopped loop drops fn.
func (l *loop) post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// stop ends the loop. Queued tasks that have not started are dropped. It
// reports whether this call stopped the loop.
func (l *loop) stop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.closed = true
	l.queue = nil
	close(l.done)
	return true
}

func (l *loop) stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// next pops the oldest task.
func (l *loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// run executes tasks until the loop is stopped or ctx is done, in which
// case the loop is stopped and ctx.Err() returned.
func (l *loop) run(ctx context.Context) error {
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
		}
		if l.stopped() {
			return nil
		}
		select {
		case <-l.wake:
		case <-l.done:
			return nil
		case <-ctx.Done():
			if !l.stop() {
				return nil
			}
			return ctx.Err()
		}
	}
}
