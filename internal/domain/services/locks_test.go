package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("same project is exclusive", func(t *testing.T) {
		locker := NewProjectLocker(50 * time.Millisecond)

		release, err := locker.Acquire(ctx, "docs")
		require.NoError(t, err)

		_, err = locker.Acquire(ctx, "docs")
		var ce *entities.ConflictError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "docs", ce.Project)

		release()

		release2, err := locker.Acquire(ctx, "docs")
		require.NoError(t, err)
		release2()
	})

	t.Run("different projects proceed in parallel", func(t *testing.T) {
		locker := NewProjectLocker(50 * time.Millisecond)

		releaseA, err := locker.Acquire(ctx, "a")
		require.NoError(t, err)
		defer releaseA()

		releaseB, err := locker.Acquire(ctx, "b")
		require.NoError(t, err)
		defer releaseB()
	})

	t.Run("waiters get the lock when it frees up", func(t *testing.T) {
		locker := NewProjectLocker(time.Second)

		release, err := locker.Acquire(ctx, "docs")
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			release2, err := locker.Acquire(ctx, "docs")
			assert.NoError(t, err)
			if err == nil {
				release2()
			}
		}()

		time.Sleep(10 * time.Millisecond)
		release()
		wg.Wait()
	})

	t.Run("context cancellation aborts the wait", func(t *testing.T) {
		locker := NewProjectLocker(time.Minute)

		release, err := locker.Acquire(ctx, "docs")
		require.NoError(t, err)
		defer release()

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err = locker.Acquire(cancelCtx, "docs")
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("non-positive wait falls back to default", func(t *testing.T) {
		locker := NewProjectLocker(0)
		assert.Equal(t, DefaultLockWait, locker.wait)
	})
}
