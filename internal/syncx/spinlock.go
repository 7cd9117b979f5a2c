package syncx

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is a busy-wait mutual exclusion lock.
//
// The zero value is an unlocked SpinLock, so it can live in package-level
// variables that must be usable before any initialization code runs.
// It is not reentrant: locking twice from the same goroutine deadlocks.
// No fairness is guaranteed between waiters.
type SpinLock struct {
	state atomic.Uint32
}

// TryLock attempts to acquire the lock without blocking and reports whether it succeeded.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Lock spins until the lock is acquired, yielding the processor between attempts.
func (l *SpinLock) Lock() {
	for !l.TryLock() {
		runtime.Gosched()
	}
}

// Unlock releases the lock.
func (l *SpinLock) Unlock() {
	l.state.Store(0)
}
