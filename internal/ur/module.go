//go:build darwin || freebsd || linux

package ur

import (
	"bytes"
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/ebitengine/purego"
)

// Module is a DispatchTable resolved from a loader shared library.
type Module struct {
	path    string
	lib     uintptr
	symbols map[API]uintptr

	loaderConfigCreate  func(cfg *uintptr) int32
	loaderConfigRelease func(cfg uintptr) int32
	loaderInit          func(flags uint32, cfg uintptr) int32
	loaderTearDown      func() int32
	adapterGet          func(n uint32, adapters *uintptr, count *uint32) int32
	adapterGetInfo      func(adapter uintptr, prop uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) int32
	adapterRelease      func(adapter uintptr) int32
	adapterGetLastError func(adapter uintptr, message *uintptr, code *int32) int32
	platformGet         func(adapter uintptr, n uint32, platforms *uintptr, count *uint32) int32
	platformGetInfo     func(platform uintptr, prop uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) int32
	deviceGet           func(platform uintptr, typ uint32, n uint32, devices *uintptr, count *uint32) int32
}

// Open loads the loader library at path and resolves every entry point in
// Symbols. The library is closed again if any symbol is missing.
func Open(path string) (*Module, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Wrapf(err, "ur: failed to open loader library %s", path)
	}

	m := &Module{
		path:    path,
		lib:     lib,
		symbols: make(map[API]uintptr, len(Symbols)),
	}

	for _, api := range Symbols {
		sym, err := purego.Dlsym(lib, string(api))
		if err != nil || sym == 0 {
			if cerr := purego.Dlclose(lib); cerr != nil {
				slog.Warn("Failed to close loader library", "path", path, "error", cerr)
			}
			return nil, errors.Wrapf(ErrMissingSymbol, "ur: %s in %s", api, path)
		}
		m.symbols[api] = sym
	}

	m.bind()

	slog.Debug("Loader library opened", "path", path, "symbols", len(m.symbols))
	return m, nil
}

func (m *Module) bind() {
	purego.RegisterFunc(&m.loaderConfigCreate, m.symbols[APILoaderConfigCreate])
	purego.RegisterFunc(&m.loaderConfigRelease, m.symbols[APILoaderConfigRelease])
	purego.RegisterFunc(&m.loaderInit, m.symbols[APILoaderInit])
	purego.RegisterFunc(&m.loaderTearDown, m.symbols[APILoaderTearDown])
	purego.RegisterFunc(&m.adapterGet, m.symbols[APIAdapterGet])
	purego.RegisterFunc(&m.adapterGetInfo, m.symbols[APIAdapterGetInfo])
	purego.RegisterFunc(&m.adapterRelease, m.symbols[APIAdapterRelease])
	purego.RegisterFunc(&m.adapterGetLastError, m.symbols[APIAdapterGetLastError])
	purego.RegisterFunc(&m.platformGet, m.symbols[APIPlatformGet])
	purego.RegisterFunc(&m.platformGetInfo, m.symbols[APIPlatformGetInfo])
	purego.RegisterFunc(&m.deviceGet, m.symbols[APIDeviceGet])
}

// Path returns the path the module was opened from.
func (m *Module) Path() string {
	return m.path
}

// Symbol returns the resolved address of an entry point.
func (m *Module) Symbol(api API) (uintptr, bool) {
	sym, ok := m.symbols[api]
	return sym, ok
}

// Close unloads the library. The module must not be used afterwards.
func (m *Module) Close() error {
	if m.lib == 0 {
		return nil
	}

	lib := m.lib
	m.lib = 0
	if err := purego.Dlclose(lib); err != nil {
		return errors.Wrapf(err, "ur: failed to close loader library %s", m.path)
	}

	return nil
}

func (m *Module) LoaderConfigCreate() (LoaderConfig, Result) {
	var cfg uintptr
	res := Result(m.loaderConfigCreate(&cfg))
	return LoaderConfig(cfg), res
}

func (m *Module) LoaderConfigRelease(cfg LoaderConfig) Result {
	return Result(m.loaderConfigRelease(uintptr(cfg)))
}

func (m *Module) LoaderInit(flags DeviceInitFlags, cfg LoaderConfig) Result {
	return Result(m.loaderInit(uint32(flags), uintptr(cfg)))
}

func (m *Module) LoaderTearDown() Result {
	return Result(m.loaderTearDown())
}

func (m *Module) AdapterGet() ([]AdapterHandle, Result) {
	var count uint32
	if res := Result(m.adapterGet(0, nil, &count)); !res.OK() || count == 0 {
		return nil, res
	}

	raw := make([]uintptr, count)
	if res := Result(m.adapterGet(count, &raw[0], nil)); !res.OK() {
		return nil, res
	}

	adapters := make([]AdapterHandle, len(raw))
	for i, h := range raw {
		adapters[i] = AdapterHandle(h)
	}
	return adapters, Success
}

func (m *Module) AdapterBackend(adapter AdapterHandle) (Backend, Result) {
	var backend uint32
	res := Result(m.adapterGetInfo(uintptr(adapter), uint32(AdapterInfoBackend),
		unsafe.Sizeof(backend), unsafe.Pointer(&backend), nil))
	return Backend(backend), res
}

func (m *Module) AdapterRelease(adapter AdapterHandle) Result {
	return Result(m.adapterRelease(uintptr(adapter)))
}

func (m *Module) AdapterGetLastError(adapter AdapterHandle) (string, int32, Result) {
	var (
		message uintptr
		code    int32
	)
	res := Result(m.adapterGetLastError(uintptr(adapter), &message, &code))
	return goString(message), code, res
}

func (m *Module) PlatformGet(adapter AdapterHandle) ([]PlatformHandle, Result) {
	var count uint32
	if res := Result(m.platformGet(uintptr(adapter), 0, nil, &count)); !res.OK() || count == 0 {
		return nil, res
	}

	raw := make([]uintptr, count)
	if res := Result(m.platformGet(uintptr(adapter), count, &raw[0], nil)); !res.OK() {
		return nil, res
	}

	platforms := make([]PlatformHandle, len(raw))
	for i, h := range raw {
		platforms[i] = PlatformHandle(h)
	}
	return platforms, Success
}

func (m *Module) PlatformBackend(platform PlatformHandle) (Backend, Result) {
	var backend uint32
	res := Result(m.platformGetInfo(uintptr(platform), uint32(PlatformInfoBackend),
		unsafe.Sizeof(backend), unsafe.Pointer(&backend), nil))
	return Backend(backend), res
}

func (m *Module) PlatformInfo(platform PlatformHandle, info PlatformInfo) (string, Result) {
	var size uintptr
	if res := Result(m.platformGetInfo(uintptr(platform), uint32(info), 0, nil, &size)); !res.OK() || size == 0 {
		return "", res
	}

	buf := make([]byte, size)
	if res := Result(m.platformGetInfo(uintptr(platform), uint32(info), size, unsafe.Pointer(&buf[0]), nil)); !res.OK() {
		return "", res
	}

	return string(bytes.TrimRight(buf, "\x00")), Success
}

func (m *Module) DeviceGet(platform PlatformHandle, typ DeviceType) ([]DeviceHandle, Result) {
	var count uint32
	if res := Result(m.deviceGet(uintptr(platform), uint32(typ), 0, nil, &count)); !res.OK() || count == 0 {
		return nil, res
	}

	raw := make([]uintptr, count)
	if res := Result(m.deviceGet(uintptr(platform), uint32(typ), count, &raw[0], nil)); !res.OK() {
		return nil, res
	}

	devices := make([]DeviceHandle, len(raw))
	for i, h := range raw {
		devices[i] = DeviceHandle(h)
	}
	return devices, Success
}

// goString copies a NUL-terminated C string owned by the loader.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}

	ptr := *(*unsafe.Pointer)(unsafe.Pointer(&p))
	n := 0
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}

	return string(unsafe.Slice((*byte)(ptr), n))
}
