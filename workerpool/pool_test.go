package workerpool_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fatimg/workerpool"
)

func TestSubmit_RunsAllTasks(t *testing.T) {
	pool := workerpool.New(2)

	var count int32
	handles := make([]*workerpool.Handle, 0, 10)
	for i := 0; i < 10; i++ {
		handles = append(handles, pool.Submit(func() error {
			atomic.AddInt32(&count, 1)
			return nil
		}))
	}

	for _, h := range handles {
		require.NoError(t, h.Wait())
	}
	require.EqualValues(t, 10, count)
}

func TestSubmit_PropagatesError(t *testing.T) {
	pool := workerpool.New(1)

	sentinel := errors.New("boom")
	h := pool.Submit(func() error {
		return sentinel
	})

	require.ErrorIs(t, h.Wait(), sentinel)
}

func TestSubmit_InlineWhenSaturated(t *testing.T) {
	pool := workerpool.New(0)

	ran := false
	h := pool.Submit(func() error {
		ran = true
		return nil
	})

	require.True(t, ran, "a zero-capacity pool must run the task inline before Submit returns")
	require.NoError(t, h.Wait())
}
