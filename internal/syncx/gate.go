package syncx

import (
	"sync"
	"sync/atomic"
)

// Gate runs an initialization function at most once successfully.
//
// Unlike sync.Once, a failed run leaves the gate closed: the error is
// returned to the caller that ran it and the next call to Do tries again.
// Concurrent callers block until the running initializer finishes, and
// every caller that sees the gate open also sees everything the successful
// initializer wrote.
type Gate struct {
	done atomic.Bool
	mu   sync.Mutex
}

// Do calls fn if no previous call has succeeded.
func (g *Gate) Do(fn func() error) error {
	if g.done.Load() {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done.Load() {
		return nil
	}

	if err := fn(); err != nil {
		return err
	}

	g.done.Store(true)
	return nil
}

// Opened reports whether an initializer has completed successfully.
func (g *Gate) Opened() bool {
	return g.done.Load()
}
