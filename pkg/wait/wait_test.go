package wait

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTrigger(t *testing.T) {
	l := New()
	ch := l.Register(3)

	errTaken := errors.New("username taken")
	l.Trigger(3, Result{Term: 2, Err: errTaken})

	select {
	case r := <-ch:
		assert.Equal(t, uint64(2), r.Term)
		assert.Equal(t, errTaken, r.Err)
	case <-time.After(time.Second):
		t.Fatal("waiter not woken")
	}

	// Channel is closed after delivery.
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, l.Pending())
}

func TestTriggerWithoutWaiter(t *testing.T) {
	l := New()
	// Followers trigger indices nobody registered; must not block or panic.
	l.Trigger(0, Result{Term: 1})
	l.Trigger(1, Result{Term: 1})
	assert.Equal(t, 0, l.Pending())
}

func TestConcurrentWaiters(t *testing.T) {
	l := New()
	done := make(chan int64, 10)
	for i := int64(0); i < 10; i++ {
		ch := l.Register(i)
		go func(i int64, ch <-chan Result) {
			r := <-ch
			require.NoError(t, r.Err)
			done <- i
		}(i, ch)
	}
	require.Equal(t, 10, l.Pending())

	for i := int64(0); i < 10; i++ {
		l.Trigger(i, Result{Term: 1})
	}

	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		select {
		case idx := <-done:
			seen[idx] = true
		case <-time.After(time.Second):
			t.Fatal("waiters not all woken")
		}
	}
	assert.Len(t, seen, 10)
}
