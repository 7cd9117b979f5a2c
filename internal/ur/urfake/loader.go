// Package urfake provides a deterministic in-memory loader for tests.
package urfake

import (
	"fmt"
	"sync"
	"time"

	"github.com/ekisa-team/synadapt/internal/ur"
)

// Platform is a fake native platform.
type Platform struct {
	Handle     ur.PlatformHandle
	Backend    ur.Backend // zero means "same as the owning adapter"
	Name       string
	Vendor     string
	Version    string
	Extensions string
	Devices    int
}

// Adapter is a fake native adapter.
type Adapter struct {
	Handle    ur.AdapterHandle
	Backend   ur.Backend
	Platforms []*Platform

	// Results returned by the corresponding entry points when non-zero.
	BackendResult  ur.Result
	PlatformResult ur.Result
	ReleaseResult  ur.Result

	// Detail returned by urAdapterGetLastError.
	LastMessage string
	LastCode    int32

	released int
}

// Loader implements ur.Loader entirely in memory.
type Loader struct {
	// Delay is slept inside enumeration calls to widen race windows.
	Delay time.Duration

	mu          sync.Mutex
	adapters    []*Adapter
	results     map[ur.API]ur.Result
	calls       map[ur.API]int
	next        uintptr
	initialized bool
	tornDown    bool
	closed      bool
	liveConfigs int
}

var _ ur.Loader = (*Loader)(nil)

// NewLoader returns an empty fake loader.
func NewLoader() *Loader {
	return &Loader{
		results: make(map[ur.API]ur.Result),
		calls:   make(map[ur.API]int),
		next:    0x1000,
	}
}

func (l *Loader) handle() uintptr {
	l.next += 0x10
	return l.next
}

// AddAdapter registers an adapter reporting backend, with one platform per
// entry of deviceCounts holding that many devices.
func (l *Loader) AddAdapter(backend ur.Backend, deviceCounts ...int) *Adapter {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := &Adapter{
		Handle:  ur.AdapterHandle(l.handle()),
		Backend: backend,
	}
	for i, n := range deviceCounts {
		a.Platforms = append(a.Platforms, &Platform{
			Handle:  ur.PlatformHandle(l.handle()),
			Name:    fmt.Sprintf("%s platform %d", backend, i),
			Vendor:  "Fake Vendor",
			Version: fmt.Sprintf("%d.0", i+1),
			Devices: n,
		})
	}

	l.adapters = append(l.adapters, a)
	return a
}

// Duplicate makes enumeration report a once more, as a loader listing the
// same adapter twice would.
func (l *Loader) Duplicate(a *Adapter) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.adapters = append(l.adapters, a)
}

// Fail forces every later call of api to return res.
func (l *Loader) Fail(api ur.API, res ur.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.results[api] = res
}

// Restore undoes Fail for api.
func (l *Loader) Restore(api ur.API) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.results, api)
}

// Calls returns how many times api was invoked.
func (l *Loader) Calls(api ur.API) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.calls[api]
}

// Released returns how many times the adapter was released.
func (l *Loader) Released(a *Adapter) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return a.released
}

// TornDown reports whether urLoaderTearDown was called.
func (l *Loader) TornDown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.tornDown
}

// Closed reports whether Close was called.
func (l *Loader) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closed
}

// LiveConfigs returns the number of loader configs created and not released.
func (l *Loader) LiveConfigs() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.liveConfigs
}

// enter records a call and returns the forced result, if any. l.mu must be held.
func (l *Loader) enter(api ur.API) (ur.Result, bool) {
	l.calls[api]++
	res, forced := l.results[api]
	return res, forced
}

func (l *Loader) adapter(h ur.AdapterHandle) *Adapter {
	for _, a := range l.adapters {
		if a.Handle == h {
			return a
		}
	}
	return nil
}

func (l *Loader) platform(h ur.PlatformHandle) (*Adapter, *Platform) {
	for _, a := range l.adapters {
		for _, p := range a.Platforms {
			if p.Handle == h {
				return a, p
			}
		}
	}
	return nil, nil
}

func (l *Loader) LoaderConfigCreate() (ur.LoaderConfig, ur.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APILoaderConfigCreate); ok {
		return 0, res
	}
	l.liveConfigs++
	return ur.LoaderConfig(l.handle()), ur.Success
}

func (l *Loader) LoaderConfigRelease(cfg ur.LoaderConfig) ur.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APILoaderConfigRelease); ok {
		return res
	}
	if cfg == 0 {
		return ur.ErrorInvalidNullHandle
	}
	l.liveConfigs--
	return ur.Success
}

func (l *Loader) LoaderInit(flags ur.DeviceInitFlags, cfg ur.LoaderConfig) ur.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APILoaderInit); ok {
		return res
	}
	l.initialized = true
	return ur.Success
}

func (l *Loader) LoaderTearDown() ur.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APILoaderTearDown); ok {
		return res
	}
	l.tornDown = true
	l.initialized = false
	return ur.Success
}

func (l *Loader) AdapterGet() ([]ur.AdapterHandle, ur.Result) {
	time.Sleep(l.Delay)

	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APIAdapterGet); ok {
		return nil, res
	}
	if !l.initialized {
		return nil, ur.ErrorUninitialized
	}

	handles := make([]ur.AdapterHandle, len(l.adapters))
	for i, a := range l.adapters {
		handles[i] = a.Handle
	}
	return handles, ur.Success
}

func (l *Loader) AdapterBackend(h ur.AdapterHandle) (ur.Backend, ur.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APIAdapterGetInfo); ok {
		return ur.BackendUnknown, res
	}
	a := l.adapter(h)
	if a == nil {
		return ur.BackendUnknown, ur.ErrorInvalidNullHandle
	}
	if a.BackendResult != ur.Success {
		return ur.BackendUnknown, a.BackendResult
	}
	return a.Backend, ur.Success
}

func (l *Loader) AdapterRelease(h ur.AdapterHandle) ur.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APIAdapterRelease); ok {
		return res
	}
	a := l.adapter(h)
	if a == nil {
		return ur.ErrorInvalidNullHandle
	}
	a.released++
	return a.ReleaseResult
}

func (l *Loader) AdapterGetLastError(h ur.AdapterHandle) (string, int32, ur.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APIAdapterGetLastError); ok {
		return "", 0, res
	}
	a := l.adapter(h)
	if a == nil {
		return "", 0, ur.ErrorInvalidNullHandle
	}
	return a.LastMessage, a.LastCode, ur.Success
}

func (l *Loader) PlatformGet(h ur.AdapterHandle) ([]ur.PlatformHandle, ur.Result) {
	time.Sleep(l.Delay)

	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APIPlatformGet); ok {
		return nil, res
	}
	a := l.adapter(h)
	if a == nil {
		return nil, ur.ErrorInvalidNullHandle
	}
	if a.PlatformResult != ur.Success {
		return nil, a.PlatformResult
	}

	handles := make([]ur.PlatformHandle, len(a.Platforms))
	for i, p := range a.Platforms {
		handles[i] = p.Handle
	}
	return handles, ur.Success
}

func (l *Loader) PlatformBackend(h ur.PlatformHandle) (ur.Backend, ur.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APIPlatformGetInfo); ok {
		return ur.BackendUnknown, res
	}
	a, p := l.platform(h)
	if p == nil {
		return ur.BackendUnknown, ur.ErrorInvalidNullHandle
	}
	if p.Backend != ur.BackendUnknown {
		return p.Backend, ur.Success
	}
	return a.Backend, ur.Success
}

func (l *Loader) PlatformInfo(h ur.PlatformHandle, info ur.PlatformInfo) (string, ur.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APIPlatformGetInfo); ok {
		return "", res
	}
	_, p := l.platform(h)
	if p == nil {
		return "", ur.ErrorInvalidNullHandle
	}

	switch info {
	case ur.PlatformInfoName:
		return p.Name, ur.Success
	case ur.PlatformInfoVendorName:
		return p.Vendor, ur.Success
	case ur.PlatformInfoVersion:
		return p.Version, ur.Success
	case ur.PlatformInfoExtensions:
		return p.Extensions, ur.Success
	case ur.PlatformInfoProfile:
		return "FULL_PROFILE", ur.Success
	default:
		return "", ur.ErrorInvalidEnumeration
	}
}

func (l *Loader) DeviceGet(h ur.PlatformHandle, typ ur.DeviceType) ([]ur.DeviceHandle, ur.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.enter(ur.APIDeviceGet); ok {
		return nil, res
	}
	_, p := l.platform(h)
	if p == nil {
		return nil, ur.ErrorInvalidNullHandle
	}

	devices := make([]ur.DeviceHandle, p.Devices)
	for i := range devices {
		devices[i] = ur.DeviceHandle(uintptr(p.Handle)<<8 | uintptr(i+1))
	}
	return devices, ur.Success
}

// Close marks the loader closed.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	return nil
}
