// Package future provides a single-assignment, chainable asynchronous result.
// It is the primitive used to hand eventual outcomes from engine callbacks to
// application code: every async operation returns a *Result[T] that is
// completed exactly once, with either a value or an error, by whichever
// goroutine produces the outcome.
package future

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrAlreadyCompleted is returned when completing a result that has
	// already left the pending state. It signals a double-resolution bug
	// upstream and is never swallowed internally.
	ErrAlreadyCompleted = errors.New("future: already completed")

	// ErrCancelled completes a result whose cancellation succeeded.
	ErrCancelled = errors.New("future: cancelled")

	// ErrNilError is used in place of a nil error passed to CompleteError.
	ErrNilError = errors.New("future: completed with nil error")
)

type state int

const (
	statePending state = iota
	stateValue
	stateError
)

// canceler lets a derived result walk to its source without knowing the
// source's type parameter.
type canceler interface {
	cancelAsBool() *Result[bool]
}

// Result is a thread-safe, single-assignment asynchronous value.
//
// Listeners registered through Then, ThenBoth, Exceptionally, or Await fire
// exactly once, in registration order, on a dispatch goroutine owned by the
// result. They are never invoked synchronously inline, even when the result
// is already complete at registration time, so attaching a listener can never
// reenter the caller.
type Result[T any] struct {
	mu          sync.Mutex
	state       state
	value       T
	err         error
	listeners   []func(T, error)
	queue       []func()
	dispatching bool
	source      canceler
	cancelFn    func() *Result[bool]
}

// New returns a pending result.
func New[T any]() *Result[T] {
	return &Result[T]{}
}

// FromValue returns a result already completed with value.
func FromValue[T any](value T) *Result[T] {
	r := New[T]()
	_ = r.Complete(value)
	return r
}

// FromError returns a result already completed exceptionally with err.
func FromError[T any](err error) *Result[T] {
	r := New[T]()
	_ = r.CompleteError(err)
	return r
}

// Complete transitions the result from pending to completed with value.
// Returns ErrAlreadyCompleted if the result has already been completed.
func (r *Result[T]) Complete(value T) error {
	return r.settle(value, nil)
}

// CompleteError transitions the result from pending to completed
// exceptionally. A nil err is replaced with ErrNilError rather than being
// mistaken for a value completion.
func (r *Result[T]) CompleteError(err error) error {
	if err == nil {
		err = ErrNilError
	}
	var zero T
	return r.settle(zero, err)
}

func (r *Result[T]) settle(value T, err error) error {
	r.mu.Lock()
	if r.state != statePending {
		r.mu.Unlock()
		return ErrAlreadyCompleted
	}
	if err != nil {
		r.state = stateError
		r.err = err
	} else {
		r.state = stateValue
		r.value = value
	}
	listeners := r.listeners
	r.listeners = nil
	for _, fn := range listeners {
		fn := fn
		r.queue = append(r.queue, func() { fn(value, err) })
	}
	r.ensureDispatchLocked()
	r.mu.Unlock()
	return nil
}

// addListener registers fn to run once the result completes. If the result is
// already complete, fn is queued for asynchronous dispatch immediately.
func (r *Result[T]) addListener(fn func(T, error)) {
	r.mu.Lock()
	if r.state == statePending {
		r.listeners = append(r.listeners, fn)
		r.mu.Unlock()
		return
	}
	value, err := r.value, r.err
	r.queue = append(r.queue, func() { fn(value, err) })
	r.ensureDispatchLocked()
	r.mu.Unlock()
}

// ensureDispatchLocked starts the drain goroutine if one is not running.
// A single drainer plus a FIFO queue preserves registration order.
func (r *Result[T]) ensureDispatchLocked() {
	if r.dispatching {
		return
	}
	r.dispatching = true
	go r.drain()
}

func (r *Result[T]) drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.dispatching = false
			r.mu.Unlock()
			return
		}
		fn := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		fn()
	}
}

// Then derives a new result completed by onValue once r completes with a
// value. An exceptional completion of r propagates to the derived result
// unchanged. Go methods cannot introduce type parameters, so cross-type
// transforms are package-level functions.
//
// onValue may return a nil result, which completes the derived result with
// the zero value, or a non-nil error, which completes it exceptionally.
func Then[T, U any](r *Result[T], onValue func(T) (*Result[U], error)) *Result[U] {
	return ThenBoth(r, onValue, nil)
}

// ThenBoth derives a new result completed by exactly one of the two handlers,
// depending on how r terminates. A nil handler propagates the error unchanged
// (nil onError) or completes the derived result with the zero value (nil
// onValue); use Exceptionally for same-type value passthrough.
func ThenBoth[T, U any](r *Result[T], onValue func(T) (*Result[U], error), onError func(error) (*Result[U], error)) *Result[U] {
	next := &Result[U]{source: r}
	r.addListener(func(value T, err error) {
		if err != nil {
			if onError == nil {
				_ = next.CompleteError(err)
				return
			}
			inner, herr := onError(err)
			chainInto(next, inner, herr)
			return
		}
		if onValue == nil {
			var zero U
			_ = next.Complete(zero)
			return
		}
		inner, verr := onValue(value)
		chainInto(next, inner, verr)
	})
	return next
}

// Exceptionally derives a new result that onError completes if r completes
// exceptionally. Value completions propagate through untouched.
func (r *Result[T]) Exceptionally(onError func(error) (*Result[T], error)) *Result[T] {
	next := &Result[T]{source: r}
	r.addListener(func(value T, err error) {
		if err == nil {
			_ = next.Complete(value)
			return
		}
		inner, herr := onError(err)
		chainInto(next, inner, herr)
	})
	return next
}

// chainInto completes next from a handler's return: a handler error wins,
// a nil inner result completes with the zero value, and otherwise next
// tracks the inner result's outcome.
func chainInto[U any](next *Result[U], inner *Result[U], err error) {
	if err != nil {
		_ = next.CompleteError(err)
		return
	}
	if inner == nil {
		var zero U
		_ = next.Complete(zero)
		return
	}
	inner.addListener(func(value U, ierr error) {
		if ierr != nil {
			_ = next.CompleteError(ierr)
			return
		}
		_ = next.Complete(value)
	})
}

// SetCancelDelegate attaches the handler Cancel invokes to attempt
// cancellation of the underlying operation. A nil fn detaches.
func (r *Result[T]) SetCancelDelegate(fn func() *Result[bool]) {
	r.mu.Lock()
	r.cancelFn = fn
	r.mu.Unlock()
}

// Cancel attempts to cancel the operation behind this result and resolves to
// whether cancellation succeeded. If no delegate is attached locally the walk
// continues to the result this one derives from; with no delegate anywhere in
// the chain it resolves false. A successful cancellation completes this
// result exceptionally with ErrCancelled.
func (r *Result[T]) Cancel() *Result[bool] {
	r.mu.Lock()
	if r.state != statePending {
		r.mu.Unlock()
		return FromValue(false)
	}
	fn := r.cancelFn
	source := r.source
	r.mu.Unlock()

	var attempt *Result[bool]
	switch {
	case fn != nil:
		attempt = fn()
		if attempt == nil {
			attempt = FromValue(false)
		}
	case source != nil:
		attempt = source.cancelAsBool()
	default:
		return FromValue(false)
	}

	return Then(attempt, func(ok bool) (*Result[bool], error) {
		if ok {
			// The source may already have propagated ErrCancelled down to
			// us; a second completion attempt is harmless here.
			_ = r.CompleteError(ErrCancelled)
		}
		return FromValue(ok), nil
	})
}

func (r *Result[T]) cancelAsBool() *Result[bool] {
	return r.Cancel()
}

// Await blocks until the result completes or ctx is done. It is the bridge
// for callers that want synchronous, context-aware consumption.
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	done := make(chan struct{})
	var (
		value T
		err   error
	)
	r.addListener(func(v T, e error) {
		value, err = v, e
		close(done)
	})
	select {
	case <-done:
		return value, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsCancelled reports whether err marks a cancelled result.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
