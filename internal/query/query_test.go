package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Transitions(t *testing.T) {
	ctx := context.Background()
	q := New(func(context.Context) ([]string, error) { return []string{"a"}, nil })

	assert.True(t, q.State().Pending())

	ch, stop := q.Subscribe()
	defer stop()

	st := q.Run(ctx)
	assert.True(t, st.Loaded())
	assert.Equal(t, []string{"a"}, st.Data)
	assert.Equal(t, "", st.Message())

	assert.Equal(t, Loading, (<-ch).Status)
	assert.Equal(t, Success, (<-ch).Status)
}

func TestQuery_Error(t *testing.T) {
	st := Fetch(context.Background(), func(context.Context) (int, error) {
		return 7, errors.New("Not found")
	})
	assert.True(t, st.Failed())
	assert.Equal(t, "Not found", st.Message())
	assert.Zero(t, st.Data, "data is discarded on error")
	assert.Equal(t, 42, Or(st, 42))
}

func TestQuery_PanicSettlesAsError(t *testing.T) {
	st := Fetch(context.Background(), func(context.Context) (int, error) {
		panic("boom")
	})
	require.True(t, st.Failed())
	assert.Contains(t, st.Message(), "boom")
}

func TestQuery_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := Fetch(ctx, func(context.Context) (string, error) { return "late", nil })
	assert.ErrorIs(t, st.Err, context.Canceled)
}

func TestSettle_WaitsForAll(t *testing.T) {
	ctx := context.Background()

	// Every fetch waits until all three have started, so a sequential
	// Settle would time out instead of succeeding.
	var started sync.WaitGroup
	started.Add(3)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	fetch := func(err error) Fetcher[string] {
		return func(context.Context) (string, error) {
			started.Done()
			select {
			case <-allStarted:
				return "done", err
			case <-time.After(2 * time.Second):
				return "", errors.New("queries did not run concurrently")
			}
		}
	}

	a := New(fetch(nil))
	b := New(fetch(errors.New("failed")))
	c := New(fetch(nil))

	Settle(ctx, a, b, c)

	assert.True(t, a.State().Loaded(), a.State().Message())
	assert.True(t, b.State().Failed())
	assert.Equal(t, "failed", b.State().Message())
	assert.True(t, c.State().Loaded(), "a failure must not cancel sibling queries")
}

func TestSubscribe_StopIsIdempotent(t *testing.T) {
	q := New(func(context.Context) (int, error) { return 1, nil })
	ch, stop := q.Subscribe()
	stop()
	stop()
	_, open := <-ch
	assert.False(t, open)
	q.Run(context.Background())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "success", Success.String())
}
