package ur

// DefaultLibrary is the loader library opened when none is configured.
const DefaultLibrary = "libur_loader.so.0"

// API names a loader entry point by its exported symbol.
type API string

const (
	APILoaderConfigCreate  API = "urLoaderConfigCreate"
	APILoaderConfigRelease API = "urLoaderConfigRelease"
	APILoaderInit          API = "urLoaderInit"
	APILoaderTearDown      API = "urLoaderTearDown"
	APIAdapterGet          API = "urAdapterGet"
	APIAdapterGetInfo      API = "urAdapterGetInfo"
	APIAdapterRelease      API = "urAdapterRelease"
	APIAdapterGetLastError API = "urAdapterGetLastError"
	APIPlatformGet         API = "urPlatformGet"
	APIPlatformGetInfo     API = "urPlatformGetInfo"
	APIDeviceGet           API = "urDeviceGet"
)

// Symbols lists every entry point a loader module must export.
var Symbols = []API{
	APILoaderConfigCreate,
	APILoaderConfigRelease,
	APILoaderInit,
	APILoaderTearDown,
	APIAdapterGet,
	APIAdapterGetInfo,
	APIAdapterRelease,
	APIAdapterGetLastError,
	APIPlatformGet,
	APIPlatformGetInfo,
	APIDeviceGet,
}

// DispatchTable is the set of loader entry points, one method per native
// operation. Enumeration methods hide the native count-then-fill protocol
// and return slices.
type DispatchTable interface {
	LoaderConfigCreate() (LoaderConfig, Result)
	LoaderConfigRelease(cfg LoaderConfig) Result
	LoaderInit(flags DeviceInitFlags, cfg LoaderConfig) Result
	LoaderTearDown() Result

	AdapterGet() ([]AdapterHandle, Result)
	AdapterBackend(adapter AdapterHandle) (Backend, Result)
	AdapterRelease(adapter AdapterHandle) Result
	// AdapterGetLastError returns the message and adapter-specific code of the
	// last call that failed with ErrorAdapterSpecific on this adapter.
	AdapterGetLastError(adapter AdapterHandle) (string, int32, Result)

	PlatformGet(adapter AdapterHandle) ([]PlatformHandle, Result)
	PlatformBackend(platform PlatformHandle) (Backend, Result)
	PlatformInfo(platform PlatformHandle, info PlatformInfo) (string, Result)

	DeviceGet(platform PlatformHandle, typ DeviceType) ([]DeviceHandle, Result)
}

// Loader is a DispatchTable backed by a resource that must be closed once
// the loader has been torn down.
type Loader interface {
	DispatchTable
	Close() error
}
