// Package discovery assembles the list of platforms available to the
// process from every connected backend.
package discovery

import (
	"log/slog"
	"slices"
	"time"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/platform"
	"github.com/ekisa-team/synadapt/internal/registry"
)

// Filter selects which platforms discovery returns.
type Filter struct {
	// Backends lists the allowed backend kinds. Empty, or containing
	// backend.KindAll, allows every backend.
	Backends []backend.Kind

	// KeepEmpty keeps platforms that expose no devices.
	KeepEmpty bool
}

// ParseFilter builds a Filter from backend names.
func ParseFilter(names []string, keepEmpty bool) (Filter, error) {
	f := Filter{KeepEmpty: keepEmpty}
	for _, name := range names {
		k, err := backend.ParseKind(name)
		if err != nil {
			return Filter{}, err
		}
		f.Backends = append(f.Backends, k)
	}
	return f, nil
}

// Allows reports whether platforms of kind k pass the backend filter.
func (f Filter) Allows(k backend.Kind) bool {
	if len(f.Backends) == 0 || slices.Contains(f.Backends, backend.KindAll) {
		return true
	}
	return slices.Contains(f.Backends, k)
}

type candidate struct {
	platform *platform.Platform
	devices  int
	counted  bool
}

// Platforms returns the platforms of every adapter in reg, in adapter
// enumeration order, and numbers their devices.
//
// Numbering covers every platform of an adapter whatever the filter, so a
// platform keeps the same device ids across passes with different filters.
// A platform whose devices cannot be enumerated contributes no ids.
//
// Failures never abort discovery. A loader that cannot be initialized
// yields no platforms; an adapter whose platforms cannot be enumerated is
// skipped. Both are logged. A closed registry yields no platforms.
func Platforms(reg *registry.Registry, f Filter) []*platform.Platform {
	start := time.Now()

	adapters, err := reg.Adapters()
	if err != nil {
		slog.Warn("Backend discovery unavailable", "error", err)
		return nil
	}

	var result []*platform.Platform
	for _, a := range adapters {
		cache := reg.Platforms()
		if cache == nil {
			return nil
		}

		handles, err := a.Platforms()
		if err != nil {
			slog.Error("Failed to enumerate platforms, skipping backend", "backend", a.Kind(), "error", err)
			continue
		}

		candidates := make([]candidate, 0, len(handles))
		for _, h := range handles {
			c := candidate{platform: cache.GetOrCreate(h, a)}
			devices, err := c.platform.Devices()
			if err != nil {
				slog.Error("Failed to enumerate devices, skipping platform", "backend", a.Kind(), "platform", uintptr(h), "error", err)
			} else {
				c.devices = len(devices)
				c.counted = true
			}
			candidates = append(candidates, c)
		}

		a.Lock()
		for _, c := range candidates {
			h := c.platform.Handle()
			a.SetLastDeviceID(h, a.StartingDeviceID(h)+c.devices)
		}
		a.Unlock()

		for _, c := range candidates {
			if c.counted && f.Allows(c.platform.Kind()) && (c.devices > 0 || f.KeepEmpty) {
				result = append(result, c.platform)
			}
		}
	}

	reg.Metrics().Discovery(time.Since(start), len(result))
	slog.Debug("Platforms discovered", "adapters", len(adapters), "platforms", len(result), "elapsed", time.Since(start))
	return result
}

// GetPlatforms runs Platforms against the process-wide registry. After
// registry.Shutdown it returns no platforms.
func GetPlatforms(f Filter) []*platform.Platform {
	reg, ok := registry.Instance()
	if !ok {
		return nil
	}
	return Platforms(reg, f)
}
