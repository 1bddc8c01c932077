package debounce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wait = 30 * time.Millisecond

func TestDebouncer_CollapsesToLastArgument(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	d := New(wait, func(s string) {
		mu.Lock()
		calls = append(calls, s)
		mu.Unlock()
	})
	defer d.Stop()

	d.Trigger("a")
	d.Trigger("ab")
	d.Trigger("abc")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(3 * wait)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"abc"}, calls)
}

func TestDebouncer_NoLeadingEdge(t *testing.T) {
	var count atomic.Int32
	d := New(wait, func(int) { count.Add(1) })
	defer d.Stop()

	d.Trigger(1)
	assert.Equal(t, int32(0), count.Load())
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Pending())
}

func TestDebouncer_SeparateWindowsRunSeparately(t *testing.T) {
	var count atomic.Int32
	d := New(wait, func(int) { count.Add(1) })
	defer d.Stop()

	d.Trigger(1)
	assert.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Trigger(2)
	assert.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_Cancel(t *testing.T) {
	var count atomic.Int32
	d := New(wait, func(int) { count.Add(1) })
	defer d.Stop()

	d.Trigger(1)
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	time.Sleep(3 * wait)
	assert.Equal(t, int32(0), count.Load())
}

func TestDebouncer_StopIgnoresLaterTriggers(t *testing.T) {
	var count atomic.Int32
	d := New(wait, func(int) { count.Add(1) })

	d.Trigger(1)
	d.Stop()
	d.Trigger(2)

	time.Sleep(3 * wait)
	assert.Equal(t, int32(0), count.Load())
	assert.False(t, d.Pending())
}

func TestCall_SharesTrailingResult(t *testing.T) {
	var executions atomic.Int32
	c := NewCall(wait, func(_ context.Context, s string) (string, error) {
		executions.Add(1)
		return "ran:" + s, nil
	})
	defer c.Stop()

	ctx := context.Background()
	results := make([]string, 3)
	var wg sync.WaitGroup
	for i, arg := range []string{"x", "y", "z"} {
		wg.Add(1)
		go func(i int, arg string) {
			defer wg.Done()
			out, err := c.Do(ctx, arg)
			assert.NoError(t, err)
			results[i] = out
		}(i, arg)
		time.Sleep(wait / 5)
	}
	wg.Wait()

	assert.Equal(t, int32(1), executions.Load())
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Contains(t, []string{"ran:x", "ran:y", "ran:z"}, results[0])
}

func TestCall_ContextCancelled(t *testing.T) {
	c := NewCall(time.Second, func(context.Context, int) (int, error) { return 1, nil })
	defer c.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	_, err := c.Do(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCall_StopReleasesWaiters(t *testing.T) {
	c := NewCall(time.Second, func(context.Context, int) (int, error) { return 1, nil })

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Do(context.Background(), 1)
		errCh <- err
	}()

	time.Sleep(wait)
	c.Stop()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}

	_, err := c.Do(context.Background(), 2)
	assert.ErrorIs(t, err, ErrStopped)
}
