package backend

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/ekisa-team/synadapt/internal/metrics"
	"github.com/ekisa-team/synadapt/internal/ur"
)

// LoadOptions configures LoadAll.
type LoadOptions struct {
	// LoaderConfig is passed to urLoaderInit. When zero, LoadAll creates a
	// config of its own and releases it once the loader is initialized.
	LoaderConfig ur.LoaderConfig
	InitFlags    ur.DeviceInitFlags
	Metrics      *metrics.Metrics
}

// LoadResult is the outcome of LoadAll.
type LoadResult struct {
	Adapters []*Adapter

	// LoaderInitialized is set once urLoaderInit succeeded, meaning the
	// loader must be torn down even if no adapter was connected.
	LoaderInitialized bool
}

// LoadAll initializes the native loader and connects one Adapter per backend
// module it reports. A module whose backend cannot be determined or mapped is
// logged, released and skipped. Failure of the loader itself is returned
// together with whatever LoadResult was reached.
func LoadAll(table ur.DispatchTable, opts LoadOptions) (*LoadResult, error) {
	result := &LoadResult{}
	observe := func(api ur.API, res ur.Result) ur.Result {
		opts.Metrics.NativeCall(string(api), res.String())
		return res
	}

	cfg := opts.LoaderConfig
	ownConfig := false
	if cfg == 0 {
		created, res := table.LoaderConfigCreate()
		if observe(ur.APILoaderConfigCreate, res).OK() {
			cfg = created
			ownConfig = true
		} else {
			slog.Warn("Failed to create loader config, initializing without one", "result", res)
		}
	}

	res := observe(ur.APILoaderInit, table.LoaderInit(opts.InitFlags, cfg))

	if ownConfig {
		if r := observe(ur.APILoaderConfigRelease, table.LoaderConfigRelease(cfg)); !r.OK() {
			slog.Warn("Failed to release loader config", "result", r)
		}
	}

	if !res.OK() {
		return result, errors.Mark(&Error{Errc: ErrcRuntime, Kind: KindAll, API: ur.APILoaderInit, Code: res}, ErrLoaderInit)
	}
	result.LoaderInitialized = true

	handles, res := table.AdapterGet()
	if !observe(ur.APIAdapterGet, res).OK() {
		return result, errors.Mark(&Error{Errc: ErrcRuntime, Kind: KindAll, API: ur.APIAdapterGet, Code: res}, ErrLoaderInit)
	}

	if len(handles) == 0 {
		slog.Warn("Native loader reported no adapters")
		return result, nil
	}

	for _, h := range handles {
		raw, res := table.AdapterBackend(h)
		if !observe(ur.APIAdapterGetInfo, res).OK() {
			slog.Error("Failed to query adapter backend, skipping adapter", "adapter", uintptr(h), "result", res)
			releaseUnused(table, h, opts.Metrics)
			continue
		}

		kind, err := KindFromNative(raw)
		if err != nil {
			slog.Error("Adapter reports an unsupported backend, skipping adapter", "adapter", uintptr(h), "backend", raw, "error", err)
			releaseUnused(table, h, opts.Metrics)
			continue
		}

		result.Adapters = append(result.Adapters, NewAdapter(h, kind, table, opts.Metrics))
		opts.Metrics.AdapterLoaded(kind.String())
		slog.Debug("Adapter connected", "backend", kind, "adapter", uintptr(h))
	}

	slog.Info("Backend adapters loaded", "reported", len(handles), "connected", len(result.Adapters))
	return result, nil
}

// releaseUnused drops the loader's reference to an adapter that will not be wrapped.
func releaseUnused(table ur.DispatchTable, h ur.AdapterHandle, m *metrics.Metrics) {
	res := table.AdapterRelease(h)
	m.NativeCall(string(ur.APIAdapterRelease), res.String())
	if !res.OK() {
		slog.Warn("Failed to release skipped adapter", "adapter", uintptr(h), "result", res)
	}
}
