package registry

import (
	"log/slog"
	"sync/atomic"

	"github.com/ekisa-team/synadapt/internal/syncx"
)

// State is the lifecycle state of the process-wide registry.
type State int32

const (
	StateAbsent State = iota
	StateActive
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateActive:
		return "active"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// The process-wide registry. existence guards creation and teardown of
// instance; steady-state reads only load the pointer.
var (
	existence  syncx.SpinLock
	instance   atomic.Pointer[Registry]
	state      atomic.Int32
	globalOpts []Option
)

// Configure sets the options used when the process-wide registry is
// created. It fails once the registry exists or has been torn down.
func Configure(opts ...Option) error {
	existence.Lock()
	defer existence.Unlock()

	switch State(state.Load()) {
	case StateActive:
		return ErrAlreadyActive
	case StateTornDown:
		return ErrTornDown
	}

	globalOpts = append(globalOpts, opts...)
	return nil
}

// Instance returns the process-wide registry, creating it on first use.
// After Shutdown it returns false and never creates a new one.
func Instance() (*Registry, bool) {
	if r := instance.Load(); r != nil {
		return r, true
	}

	existence.Lock()
	defer existence.Unlock()

	if r := instance.Load(); r != nil {
		return r, true
	}
	if State(state.Load()) == StateTornDown {
		return nil, false
	}

	r := New(globalOpts...)
	instance.Store(r)
	state.Store(int32(StateActive))
	return r, true
}

// CurrentState returns the lifecycle state of the process-wide registry.
func CurrentState() State {
	return State(state.Load())
}

// Shutdown tears the process-wide registry down. It is the single shutdown
// entry point of the process and is safe to call any number of times from
// anywhere: only the first call acts, and failures are logged, never
// returned.
func Shutdown() {
	existence.Lock()
	r := instance.Swap(nil)
	prev := State(state.Swap(int32(StateTornDown)))
	existence.Unlock()

	if prev == StateTornDown || r == nil {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("Panic during registry teardown", "panic", p)
		}
	}()

	if err := r.Close(); err != nil {
		slog.Error("Registry teardown failed", "error", err)
		return
	}
	slog.Debug("Registry torn down")
}
