package registry

import (
	"github.com/cockroachdb/errors"

	"github.com/ekisa-team/synadapt/internal/metrics"
	"github.com/ekisa-team/synadapt/internal/ur"
)

// Opener opens the native loader. It runs inside the adapter loading gate,
// at most once per successful load.
type Opener func() (ur.Loader, error)

// LibraryOpener returns an Opener loading the shared library at path.
func LibraryOpener(path string) Opener {
	return func() (ur.Loader, error) {
		m, err := ur.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "registry: open loader")
		}
		return m, nil
	}
}

type options struct {
	opener       Opener
	loaderConfig ur.LoaderConfig
	initFlags    ur.DeviceInitFlags
	metrics      *metrics.Metrics
}

func defaultOptions() options {
	return options{
		opener: LibraryOpener(ur.DefaultLibrary),
	}
}

// Option configures a Registry.
type Option func(*options)

// WithOpener sets how the native loader is opened.
func WithOpener(o Opener) Option {
	return func(opts *options) {
		opts.opener = o
	}
}

// WithLibrary opens the loader library at path. An empty path keeps the default.
func WithLibrary(path string) Option {
	return func(opts *options) {
		if path != "" {
			opts.opener = LibraryOpener(path)
		}
	}
}

// WithLoaderConfig passes an existing loader config to urLoaderInit. The
// caller keeps ownership of cfg.
func WithLoaderConfig(cfg ur.LoaderConfig) Option {
	return func(opts *options) {
		opts.loaderConfig = cfg
	}
}

// WithInitFlags sets the device init flags passed to urLoaderInit.
func WithInitFlags(flags ur.DeviceInitFlags) Option {
	return func(opts *options) {
		opts.initFlags = flags
	}
}

// WithMetrics records loading, native calls and cache lookups in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(opts *options) {
		opts.metrics = m
	}
}
