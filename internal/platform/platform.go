// Package platform holds the canonical Platform object of every native
// platform handle discovered through an adapter.
package platform

import (
	"log/slog"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/syncx"
	"github.com/ekisa-team/synadapt/internal/ur"
)

// Platform is a group of devices reported by one backend. There is exactly
// one Platform per native handle; instances are only created by a Cache.
type Platform struct {
	handle ur.PlatformHandle
	// adapter is not owned. Teardown clears every cache before releasing
	// adapters, so it outlives the platform.
	adapter *backend.Adapter
	kind    backend.Kind

	enumerated syncx.Gate
	devices    []ur.DeviceHandle
}

// newPlatform resolves the backend kind of handle. The native platform
// backend is preferred; the adapter's kind is used when it is not available.
func newPlatform(handle ur.PlatformHandle, adapter *backend.Adapter) *Platform {
	p := &Platform{
		handle:  handle,
		adapter: adapter,
		kind:    adapter.Kind(),
	}

	var raw ur.Backend
	err := adapter.Call(ur.APIPlatformGetInfo, func(t ur.DispatchTable, _ ur.AdapterHandle) ur.Result {
		var res ur.Result
		raw, res = t.PlatformBackend(handle)
		return res
	})
	if err != nil {
		slog.Debug("Platform backend unavailable, using adapter backend", "platform", uintptr(handle), "error", err)
		return p
	}

	if kind, err := backend.KindFromNative(raw); err == nil {
		p.kind = kind
	}
	return p
}

// Handle returns the native platform handle.
func (p *Platform) Handle() ur.PlatformHandle {
	return p.handle
}

// Adapter returns the adapter that enumerated the platform.
func (p *Platform) Adapter() *backend.Adapter {
	return p.adapter
}

// Kind returns the backend kind recorded when the platform was created.
func (p *Platform) Kind() backend.Kind {
	return p.kind
}

// HasBackend tells if the platform belongs to backend k.
func (p *Platform) HasBackend(k backend.Kind) bool {
	return p.kind == k
}

func (p *Platform) info(info ur.PlatformInfo) (string, error) {
	var value string
	err := p.adapter.CallErrc(backend.ErrcPlatform, ur.APIPlatformGetInfo, func(t ur.DispatchTable, _ ur.AdapterHandle) ur.Result {
		var res ur.Result
		value, res = t.PlatformInfo(p.handle, info)
		return res
	})
	return value, err
}

// Name returns the platform name reported by the backend.
func (p *Platform) Name() (string, error) {
	return p.info(ur.PlatformInfoName)
}

// Vendor returns the platform vendor.
func (p *Platform) Vendor() (string, error) {
	return p.info(ur.PlatformInfoVendorName)
}

// Version returns the backend version string of the platform.
func (p *Platform) Version() (string, error) {
	return p.info(ur.PlatformInfoVersion)
}

// Extensions returns the space separated extension list of the platform.
func (p *Platform) Extensions() (string, error) {
	return p.info(ur.PlatformInfoExtensions)
}

// Devices returns every device of the platform. The list is queried once;
// a failed query is retried by the next call.
func (p *Platform) Devices() ([]ur.DeviceHandle, error) {
	err := p.enumerated.Do(func() error {
		var devices []ur.DeviceHandle
		err := p.adapter.CallErrc(backend.ErrcPlatform, ur.APIDeviceGet, func(t ur.DispatchTable, _ ur.AdapterHandle) ur.Result {
			var res ur.Result
			devices, res = t.DeviceGet(p.handle, ur.DeviceTypeAll)
			return res
		})
		if err != nil {
			return err
		}
		p.devices = devices
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p.devices, nil
}

// DeviceIDRange returns the first device id assigned to the platform and the
// number of ids it spans. Both are zero until discovery has numbered the
// adapter's platforms.
func (p *Platform) DeviceIDRange() (first, count int) {
	p.adapter.Lock()
	defer p.adapter.Unlock()

	first = p.adapter.StartingDeviceID(p.handle)
	last := p.adapter.LastDeviceID(p.handle)
	if last < first {
		return first, 0
	}
	return first, last - first
}
