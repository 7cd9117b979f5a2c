package backend

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/ekisa-team/synadapt/internal/metrics"
	"github.com/ekisa-team/synadapt/internal/syncx"
	"github.com/ekisa-team/synadapt/internal/ur"
)

// CallFunc invokes one entry point of table on behalf of adapter.
type CallFunc func(table ur.DispatchTable, adapter ur.AdapterHandle) ur.Result

// Adapter is the in-process representative of one connected backend.
type Adapter struct {
	handle  atomic.Uintptr
	kind    Kind
	table   ur.DispatchTable
	metrics *metrics.Metrics

	// mu guards lastDeviceIDs. Callers of the device id methods hold it
	// through Lock and Unlock.
	mu sync.Mutex

	populated     syncx.Gate
	platforms     []ur.PlatformHandle
	lastDeviceIDs []int
}

// NewAdapter wraps a native adapter handle reporting kind.
func NewAdapter(handle ur.AdapterHandle, kind Kind, table ur.DispatchTable, m *metrics.Metrics) *Adapter {
	a := &Adapter{
		kind:    kind,
		table:   table,
		metrics: m,
	}
	a.handle.Store(uintptr(handle))
	return a
}

// Handle returns the native adapter handle, or 0 once released.
func (a *Adapter) Handle() ur.AdapterHandle {
	return ur.AdapterHandle(a.handle.Load())
}

// Kind returns the backend reported by the adapter.
func (a *Adapter) Kind() Kind {
	return a.kind
}

// HasBackend tells if this adapter serves k.
func (a *Adapter) HasBackend(k Kind) bool {
	return a.kind == k
}

// CallNoCheck routes a native call through the dispatch table and returns
// its raw result. A released or never connected adapter succeeds without
// calling anything.
func (a *Adapter) CallNoCheck(api ur.API, fn CallFunc) ur.Result {
	h := a.Handle()
	if h == 0 {
		return ur.Success
	}

	res := fn(a.table, h)
	a.metrics.NativeCall(string(api), res.String())
	if !res.OK() {
		slog.Debug("Native call failed", "backend", a.kind, "api", api, "result", res)
	}
	return res
}

// Call routes a native call and converts a failing result into an Error
// with category ErrcRuntime.
func (a *Adapter) Call(api ur.API, fn CallFunc) error {
	return a.CheckResult(ErrcRuntime, api, a.CallNoCheck(api, fn))
}

// CallErrc is Call with an explicit error category.
func (a *Adapter) CallErrc(errc Errc, api ur.API, fn CallFunc) error {
	return a.CheckResult(errc, api, a.CallNoCheck(api, fn))
}

// CheckResult translates res into an Error. ErrorAdapterSpecific results are
// enriched with the message and code the backend reports for its last error.
func (a *Adapter) CheckResult(errc Errc, api ur.API, res ur.Result) error {
	if res.OK() {
		return nil
	}

	err := &Error{
		Errc: errc,
		Kind: a.kind,
		API:  api,
		Code: res,
	}

	if res == ur.ErrorAdapterSpecific {
		var message string
		var code int32
		last := a.CallNoCheck(ur.APIAdapterGetLastError, func(t ur.DispatchTable, h ur.AdapterHandle) ur.Result {
			var r ur.Result
			message, code, r = t.AdapterGetLastError(h)
			return r
		})
		if last.OK() {
			err.Message = message
			err.AdapterCode = code
		}
	}

	return err
}

// Platforms returns the native platforms of this adapter. They are queried
// from the backend on first use; a failed query is retried by the next call.
// The returned slice must not be modified.
func (a *Adapter) Platforms() ([]ur.PlatformHandle, error) {
	err := a.populated.Do(func() error {
		var handles []ur.PlatformHandle
		err := a.Call(ur.APIPlatformGet, func(t ur.DispatchTable, h ur.AdapterHandle) ur.Result {
			var res ur.Result
			handles, res = t.PlatformGet(h)
			return res
		})
		if err != nil {
			return err
		}

		a.mu.Lock()
		a.platforms = handles
		a.lastDeviceIDs = make([]int, len(handles))
		a.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return a.platforms, nil
}

// ContainsPlatform reports whether platform was enumerated by this adapter.
func (a *Adapter) ContainsPlatform(platform ur.PlatformHandle) bool {
	if !a.populated.Opened() {
		return false
	}
	return slices.Contains(a.platforms, platform)
}

// PlatformIndex returns the position of platform in Platforms. Passing a
// platform that does not belong to this adapter is a programming error and
// panics.
func (a *Adapter) PlatformIndex(platform ur.PlatformHandle) int {
	idx := -1
	if a.populated.Opened() {
		idx = slices.Index(a.platforms, platform)
	}
	if idx < 0 {
		panic(errors.AssertionFailedf("platform %#x does not belong to %s adapter %#x",
			uintptr(platform), a.kind, uintptr(a.Handle())))
	}
	return idx
}

// Lock acquires the mutex guarding device id bookkeeping.
func (a *Adapter) Lock() {
	a.mu.Lock()
}

// Unlock releases the mutex acquired by Lock.
func (a *Adapter) Unlock() {
	a.mu.Unlock()
}

// Device ids are consecutive across the platforms of an adapter: platform i
// starts where platform i-1 ended. The methods below must be called with the
// adapter locked.

// StartingDeviceID returns the first device id of platform.
func (a *Adapter) StartingDeviceID(platform ur.PlatformHandle) int {
	idx := a.PlatformIndex(platform)
	if idx == 0 {
		return 0
	}
	return a.lastDeviceIDs[idx-1]
}

// LastDeviceID returns the id one past the last device of platform.
func (a *Adapter) LastDeviceID(platform ur.PlatformHandle) int {
	return a.lastDeviceIDs[a.PlatformIndex(platform)]
}

// SetLastDeviceID records the id one past the last device of platform.
func (a *Adapter) SetLastDeviceID(platform ur.PlatformHandle, id int) {
	a.lastDeviceIDs[a.PlatformIndex(platform)] = id
}

// BumpLastDeviceID carries the previous platform's last id forward when
// platform contributed no devices, so later platforms are not misnumbered.
func (a *Adapter) BumpLastDeviceID(platform ur.PlatformHandle) {
	idx := a.PlatformIndex(platform)
	if idx > 0 && a.lastDeviceIDs[idx] < a.lastDeviceIDs[idx-1] {
		a.lastDeviceIDs[idx] = a.lastDeviceIDs[idx-1]
	}
}

// Release disconnects the adapter from its backend. An adapter-specific
// failure cannot be queried any further because the handle needed for the
// query is the one just released, so it is logged and ignored. Any other
// failure is returned. The handle is cleared in every case, making later
// calls no-ops.
func (a *Adapter) Release() error {
	res := a.CallNoCheck(ur.APIAdapterRelease, func(t ur.DispatchTable, h ur.AdapterHandle) ur.Result {
		return t.AdapterRelease(h)
	})
	a.handle.Store(0)

	switch res {
	case ur.Success:
		return nil
	case ur.ErrorAdapterSpecific:
		slog.Warn("Adapter reported an adapter-specific error on release", "backend", a.kind)
		return nil
	default:
		return errors.Mark(&Error{
			Errc: ErrcRuntime,
			Kind: a.kind,
			API:  ur.APIAdapterRelease,
			Code: res,
		}, ErrAdapterRelease)
	}
}
