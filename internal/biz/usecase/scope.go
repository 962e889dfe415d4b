package usecase

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrScopeBusy is returned when a scope already has a turn in flight
// and the busy policy is drop
var ErrScopeBusy = errors.New("conversation scope busy")

// scopeLocker allows at most one holder per scope key.
// Slots are reference counted and removed once nobody holds or waits on them.
type scopeLocker struct {
	mu    sync.Mutex
	slots map[string]*scopeSlot
}

type scopeSlot struct {
	sem  *semaphore.Weighted
	refs int
}

func newScopeLocker() *scopeLocker {
	return &scopeLocker{slots: make(map[string]*scopeSlot)}
}

// acquire takes the slot for key. When wait is false it fails fast with
// ErrScopeBusy, otherwise it blocks until the slot frees or ctx is done.
func (l *scopeLocker) acquire(ctx context.Context, key string, wait bool) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &scopeSlot{sem: semaphore.NewWeighted(1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	var err error
	if wait {
		err = slot.sem.Acquire(ctx, 1)
	} else if !slot.sem.TryAcquire(1) {
		err = ErrScopeBusy
	}
	if err != nil {
		l.unref(key, slot)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			slot.sem.Release(1)
			l.unref(key, slot)
		})
	}, nil
}

func (l *scopeLocker) unref(key string, slot *scopeSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// size returns the number of live slots
func (l *scopeLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
