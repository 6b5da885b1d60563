// Package query tracks the loading, error and success states of resource
// fetches so page handlers do not repeat that bookkeeping.
package query

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Status is the phase of a query.
type Status int

// Query phases.
const (
	Loading Status = iota
	Error
	Success
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Success:
		return "success"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is a snapshot of a query.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Loaded reports whether the query finished successfully.
func (s State[T]) Loaded() bool { return s.Status == Success }

// Failed reports whether the query finished with an error.
func (s State[T]) Failed() bool { return s.Status == Error }

// Pending reports whether the query has not settled yet.
func (s State[T]) Pending() bool { return s.Status == Loading }

// Message returns the error text, or "" when the query did not fail.
func (s State[T]) Message() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Or returns the data on success and fallback otherwise.
func Or[T any](s State[T], fallback T) T {
	if s.Status == Success {
		return s.Data
	}
	return fallback
}

// Fetcher is an accessor call.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query runs a Fetcher and records its state. It is safe for concurrent use.
type Query[T any] struct {
	fetch Fetcher[T]

	mu    sync.RWMutex
	state State[T]
	subs  []chan State[T]
}

// New creates a query in the Loading state.
func New[T any](fetch Fetcher[T]) *Query[T] {
	return &Query[T]{fetch: fetch}
}

// Run calls the fetcher and settles into Success or Error. A panicking or
// cancelled fetch settles into Error. Run may be called again to refetch.
func (q *Query[T]) Run(ctx context.Context) State[T] {
	q.set(State[T]{Status: Loading})

	data, err := q.call(ctx)
	if err == nil {
		err = ctx.Err()
	}

	next := State[T]{Status: Success, Data: data}
	if err != nil {
		next = State[T]{Status: Error, Err: err}
	}
	q.set(next)
	return next
}

func (q *Query[T]) call(ctx context.Context) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("query panicked: %v", r)
		}
	}()
	return q.fetch(ctx)
}

// State returns the current snapshot.
func (q *Query[T]) State() State[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state
}

// Subscribe returns a channel receiving every state change after the call, and a
// function that stops the subscription. Slow receivers miss intermediate states.
func (q *Query[T]) Subscribe() (<-chan State[T], func()) {
	ch := make(chan State[T], 4)
	q.mu.Lock()
	q.subs = append(q.subs, ch)
	q.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			for i, w := range q.subs {
				if w == ch {
					q.subs = append(q.subs[:i], q.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
	return ch, stop
}

func (q *Query[T]) set(s State[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state = s
	for _, w := range q.subs {
		select {
		case w <- s:
		default:
		}
	}
}

// Runner is anything Settle can run; every *Query is a Runner.
type Runner interface {
	settle(ctx context.Context)
}

func (q *Query[T]) settle(ctx context.Context) { q.Run(ctx) }

// Settle runs all queries concurrently and returns once every one has
// settled. A failing query does not cancel the others.
func Settle(ctx context.Context, queries ...Runner) {
	var g errgroup.Group
	for _, q := range queries {
		g.Go(func() error {
			q.settle(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// Fetch runs fetch once and returns its settled state.
func Fetch[T any](ctx context.Context, fetch Fetcher[T]) State[T] {
	return New(fetch).Run(ctx)
}
