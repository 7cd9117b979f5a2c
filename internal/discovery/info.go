package discovery

import (
	"log/slog"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/platform"
)

// Info is a printable description of one platform.
type Info struct {
	Backend       backend.Kind `json:"backend"`
	Name          string       `json:"name"`
	Vendor        string       `json:"vendor"`
	Version       string       `json:"version"`
	FirstDeviceID int          `json:"first_device_id"`
	DeviceCount   int          `json:"device_count"`
}

// Describe queries the backend for the details of each platform. Details the
// backend fails to report are logged and left empty.
func Describe(platforms []*platform.Platform) []Info {
	infos := make([]Info, 0, len(platforms))
	for _, p := range platforms {
		info := Info{Backend: p.Kind()}
		info.Name = query(p, "name", p.Name)
		info.Vendor = query(p, "vendor", p.Vendor)
		info.Version = query(p, "version", p.Version)
		info.FirstDeviceID, info.DeviceCount = p.DeviceIDRange()
		infos = append(infos, info)
	}
	return infos
}

func query(p *platform.Platform, what string, fn func() (string, error)) string {
	v, err := fn()
	if err != nil {
		slog.Warn("Failed to query platform "+what, "backend", p.Kind(), "platform", uintptr(p.Handle()), "error", err)
	}
	return v
}
