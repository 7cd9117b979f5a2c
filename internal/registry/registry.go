// Package registry owns the process-wide set of adapters and the platform
// cache, and tears them down in a fixed order.
//
// A Registry has two independent slots, one for the adapters and one for the
// platform cache. Each is created on first use under its own lock, so a slow
// backend load never blocks lookups in the cache.
package registry

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/metrics"
	"github.com/ekisa-team/synadapt/internal/platform"
	"github.com/ekisa-team/synadapt/internal/syncx"
	"github.com/ekisa-team/synadapt/internal/ur"
)

type adapterSet struct {
	loaded syncx.Gate

	// mu serializes loading with teardown.
	mu                sync.Mutex
	loader            ur.Loader
	loaderInitialized bool
	adapters          *backend.Registry
}

// Registry holds the adapters connected through one native loader and the
// platforms they report.
type Registry struct {
	opts options

	adapters  syncx.Slot[adapterSet]
	platforms syncx.Slot[platform.Cache]

	closed atomic.Bool
}

// New returns a registry that loads nothing until first used.
func New(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Registry{opts: o}
}

// Adapters returns the connected adapters in enumeration order. The native
// loader is opened and initialized by the first call; if that fails the
// error is returned and the next call tries again. A closed registry has
// no adapters.
func (r *Registry) Adapters() ([]*backend.Adapter, error) {
	if r.closed.Load() {
		return nil, nil
	}

	set := r.adapters.GetOrCreate(func() *adapterSet {
		return &adapterSet{adapters: backend.NewRegistry()}
	})

	if err := set.loaded.Do(func() error { return r.load(set) }); err != nil {
		return nil, err
	}

	return set.adapters.List(), nil
}

// Lookup returns the adapter serving kind.
func (r *Registry) Lookup(kind backend.Kind) (*backend.Adapter, error) {
	if _, err := r.Adapters(); err != nil {
		return nil, err
	}

	set := r.adapters.Peek()
	if set == nil {
		return nil, errors.Wrapf(backend.ErrNotFound, "backend %s", kind)
	}
	return set.adapters.Lookup(kind)
}

func (r *Registry) load(set *adapterSet) error {
	set.mu.Lock()
	defer set.mu.Unlock()

	if r.closed.Load() {
		return nil
	}

	loader, err := r.opts.opener()
	if err != nil {
		return err
	}

	result, err := backend.LoadAll(loader, backend.LoadOptions{
		LoaderConfig: r.opts.loaderConfig,
		InitFlags:    r.opts.initFlags,
		Metrics:      r.opts.metrics,
	})
	if err != nil {
		if result.LoaderInitialized {
			tearDownLoader(loader)
		}
		if cerr := loader.Close(); cerr != nil {
			err = errors.CombineErrors(err, cerr)
		}
		return err
	}

	for i, a := range result.Adapters {
		if err := set.adapters.Register(a); err != nil {
			err = errors.CombineErrors(err, set.adapters.Close())
			for _, rest := range result.Adapters[i:] {
				err = errors.CombineErrors(err, rest.Release())
			}
			if result.LoaderInitialized {
				tearDownLoader(loader)
			}
			return errors.CombineErrors(err, loader.Close())
		}
	}

	set.loader = loader
	set.loaderInitialized = result.LoaderInitialized
	return nil
}

// Platforms returns the platform cache, or nil once the registry is closed.
func (r *Registry) Platforms() *platform.Cache {
	if r.closed.Load() {
		return nil
	}

	return r.platforms.GetOrCreate(func() *platform.Cache {
		return platform.NewCache(r.opts.metrics)
	})
}

// Metrics returns the metrics the registry records into. It may be nil.
func (r *Registry) Metrics() *metrics.Metrics {
	return r.opts.metrics
}

// Closed reports whether Close has been called.
func (r *Registry) Closed() bool {
	return r.closed.Load()
}

// Close tears the registry down. The platform cache is cleared first since
// platforms refer to their adapters, then every adapter is released, the
// loader is torn down and closed. Every step runs even if an earlier one
// failed; the failures are combined. Calls after the first do nothing.
func (r *Registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	if cache := r.platforms.Take(); cache != nil {
		cache.Clear()
	}

	set := r.adapters.Take()
	if set == nil {
		return nil
	}

	set.mu.Lock()
	defer set.mu.Unlock()

	errs := set.adapters.Close()
	if set.loader == nil {
		return errs
	}

	if set.loaderInitialized {
		res := set.loader.LoaderTearDown()
		r.opts.metrics.NativeCall(string(ur.APILoaderTearDown), res.String())
		if !res.OK() {
			errs = errors.CombineErrors(errs, &backend.Error{
				Errc: backend.ErrcRuntime,
				Kind: backend.KindAll,
				API:  ur.APILoaderTearDown,
				Code: res,
			})
		}
	}
	if err := set.loader.Close(); err != nil {
		errs = errors.CombineErrors(errs, errors.Wrap(err, "registry: close loader"))
	}
	set.loader = nil

	return errs
}

func tearDownLoader(loader ur.DispatchTable) {
	if res := loader.LoaderTearDown(); !res.OK() {
		slog.Warn("Failed to tear down loader after a failed load", "result", res)
	}
}
