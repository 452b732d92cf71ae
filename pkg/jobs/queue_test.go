package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("mail", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Enqueue(Job{Type: "x"}), ErrNotStarted)
}

func TestQueueProcessesAndRetries(t *testing.T) {
	var calls int32
	done := make(chan Job, 1)
	q := NewQueue("mail", func(_ context.Context, j Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		done <- j
		return nil
	}, QueueConfig{Workers: 2, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "otp", Payload: "a@b.c"}))

	select {
	case j := <-done:
		assert.Equal(t, 2, j.Attempt)
		assert.NotEmpty(t, j.ID)
		assert.Equal(t, "a@b.c", j.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	q := NewQueue("mail", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{Type: "welcome"}))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	q.Stop()
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.ErrorIs(t, q.Enqueue(Job{}), ErrStopped)
}
