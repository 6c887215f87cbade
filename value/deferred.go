package value

import (
	"context"
	"sync"
)

// Deferred is a value that is not available yet.
//
// A Deferred settles exactly once, either resolved with a value or rejected
// with an error. It may be settled from any goroutine. Callbacks registered
// with OnSettle run on the goroutine that settles it, or immediately when
// it already is settled.
//
//	d := value.NewDeferred()
//	go func() {
//	    user, err := loadUser(id)
//	    if err != nil {
//	        d.Reject(err)
//	        return
//	    }
//	    d.Resolve(user)
//	}()
//	ctx := map[string]any{"user": d}
type Deferred struct {
	mu      sync.Mutex
	settled bool
	val     Value
	err     error
	waiters []func(Value, error)
}

// NewDeferred returns a pending Deferred.
func NewDeferred() *Deferred {
	return &Deferred{}
}

// Resolved returns a Deferred that is already resolved with v.
func Resolved(v any) *Deferred {
	d := NewDeferred()
	d.Resolve(v)
	return d
}

// Rejected returns a Deferred that is already rejected with err.
func Rejected(err error) *Deferred {
	d := NewDeferred()
	d.Reject(err)
	return d
}

// Go runs fn on a new goroutine and returns a Deferred for its result.
func Go(fn func() (any, error)) *Deferred {
	d := NewDeferred()
	go func() {
		v, err := fn()
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(v)
	}()
	return d
}

// Resolve settles the deferred with v. Resolving with another Deferred
// adopts its outcome. It returns false if the deferred was already settled.
func (d *Deferred) Resolve(v any) bool {
	val := FromAny(v)
	if inner, ok := val.AsDeferred(); ok {
		if inner == d {
			return false
		}
		inner.OnSettle(func(v Value, err error) {
			d.settle(v, err)
		})
		return true
	}
	return d.settle(val, nil)
}

// Reject settles the deferred with err. It returns false if the deferred
// was already settled.
func (d *Deferred) Reject(err error) bool {
	return d.settle(Undefined(), err)
}

func (d *Deferred) settle(v Value, err error) bool {
	d.mu.Lock()
	if d.settled {
		d.mu.Unlock()
		return false
	}
	d.settled = true
	d.val, d.err = v, err
	waiters := d.waiters
	d.waiters = nil
	d.mu.Unlock()

	for _, fn := range waiters {
		fn(v, err)
	}
	return true
}

// OnSettle registers fn to be called once with the outcome.
func (d *Deferred) OnSettle(fn func(Value, error)) {
	d.mu.Lock()
	if !d.settled {
		d.waiters = append(d.waiters, fn)
		d.mu.Unlock()
		return
	}
	v, err := d.val, d.err
	d.mu.Unlock()
	fn(v, err)
}

// Then returns a Deferred for fn applied to the resolved value. A
// rejection skips fn and is passed through.
func (d *Deferred) Then(fn func(Value) (Value, error)) *Deferred {
	next := NewDeferred()
	d.OnSettle(func(v Value, err error) {
		if err != nil {
			next.Reject(err)
			return
		}
		out, err := fn(v)
		if err != nil {
			next.Reject(err)
			return
		}
		next.Resolve(out)
	})
	return next
}

// Settled reports whether the deferred has an outcome.
func (d *Deferred) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Wait blocks until the deferred settles or ctx is done.
func (d *Deferred) Wait(ctx context.Context) (Value, error) {
	ch := make(chan struct{})
	var (
		val Value
		err error
	)
	d.OnSettle(func(v Value, e error) {
		val, err = v, e
		close(ch)
	})
	select {
	case <-ch:
		return val, err
	case <-ctx.Done():
		return Undefined(), ctx.Err()
	}
}
