// Package bridge adapts callback-style native bridge calls (a success and an
// error callback per call) to ordinary blocking Go calls, and the other way
// around for Go code that has to expose a callback-style API.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrRejected is returned when a native call rejects without a reason.
var ErrRejected = errors.New("bridge call rejected")

// Call is a callback-style operation. Implementations should invoke exactly
// one of resolve or reject exactly once; anything after the first outcome is
// ignored.
type Call[T any] func(resolve func(T), reject func(error))

type outcome[T any] struct {
	value T
	err   error
}

// Await invokes call and blocks until it settles or ctx is done.
// Only the first outcome counts, so a misbehaving native call that fires both
// callbacks (or one of them twice) still produces a single result.
func Await[T any](ctx context.Context, call Call[T]) (T, error) {
	done := make(chan outcome[T], 1)

	var once sync.Once
	settle := func(o outcome[T]) {
		once.Do(func() { done <- o })
	}

	invoke(call,
		func(v T) { settle(outcome[T]{value: v}) },
		func(err error) {
			if err == nil {
				err = ErrRejected
			}
			settle(outcome[T]{err: err})
		},
	)

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func invoke[T any](call Call[T], resolve func(T), reject func(error)) {
	defer func() {
		if r := recover(); r != nil {
			reject(fmt.Errorf("bridge call panicked: %v", r))
		}
	}()
	call(resolve, reject)
}

// Dispatch runs fn on its own goroutine and reports its result through
// exactly one of onSuccess or onError. Either callback may be nil.
func Dispatch[T any](fn func() (T, error), onSuccess func(T), onError func(error)) {
	go func() {
		v, err := fn()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(v)
		}
	}()
}
