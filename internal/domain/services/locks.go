package services

import (
	"context"
	"sync"
	"time"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
)

// DefaultLockWait is how long an operation waits for a project lock before
// giving up with a ConflictError.
const DefaultLockWait = 5 * time.Second

// ProjectLocker serializes mutation operations per project. Every mutation
// reads a snapshot of the graph before writing, so two operations on the same
// project must not interleave. Operations on different projects proceed in
// parallel.
type ProjectLocker struct {
	wait  time.Duration
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewProjectLocker creates a ProjectLocker with the given wait budget.
// A non-positive wait falls back to DefaultLockWait.
func NewProjectLocker(wait time.Duration) *ProjectLocker {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &ProjectLocker{
		wait:  wait,
		locks: make(map[string]chan struct{}),
	}
}

// Acquire takes the exclusive lock for a project, returning a release
// function. If the lock is not available within the wait budget the caller
// receives a ConflictError and should retry the whole operation.
func (l *ProjectLocker) Acquire(ctx context.Context, project string) (func(), error) {
	sem := l.sem(project)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-timer.C:
		return nil, &entities.ConflictError{Project: project}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// sem returns the project's semaphore channel, creating it on first use.
func (l *ProjectLocker) sem(project string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[project]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[project] = sem
	}
	return sem
}
