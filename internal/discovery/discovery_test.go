package discovery

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/metrics"
	"github.com/ekisa-team/synadapt/internal/platform"
	"github.com/ekisa-team/synadapt/internal/registry"
	"github.com/ekisa-team/synadapt/internal/ur"
	"github.com/ekisa-team/synadapt/internal/ur/urfake"
)

func newRegistry(t *testing.T, loader *urfake.Loader, opts ...registry.Option) *registry.Registry {
	t.Helper()

	opts = append(opts, registry.WithOpener(func() (ur.Loader, error) { return loader, nil }))
	r := registry.New(opts...)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func handles(platforms []*platform.Platform) []ur.PlatformHandle {
	out := make([]ur.PlatformHandle, len(platforms))
	for i, p := range platforms {
		out[i] = p.Handle()
	}
	return out
}

func TestPlatforms_TwoBackendsThreePlatforms(t *testing.T) {
	loader := urfake.NewLoader()
	cuda := loader.AddAdapter(ur.BackendCUDA, 1)
	ze := loader.AddAdapter(ur.BackendLevelZero, 2, 1)
	r := newRegistry(t, loader)

	adapters, err := r.Adapters()
	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.Equal(t, backend.KindCUDA, adapters[0].Kind())
	assert.Equal(t, backend.KindLevelZero, adapters[1].Kind())

	platforms := Platforms(r, Filter{})
	require.Len(t, platforms, 3)

	want := []ur.PlatformHandle{cuda.Platforms[0].Handle, ze.Platforms[0].Handle, ze.Platforms[1].Handle}
	if diff := cmp.Diff(want, handles(platforms)); diff != "" {
		t.Errorf("platform handles mismatch (-want +got):\n%s", diff)
	}

	assert.Same(t, adapters[0], platforms[0].Adapter())
	assert.Same(t, adapters[1], platforms[1].Adapter())
	assert.Same(t, adapters[1], platforms[2].Adapter())

	again := Platforms(r, Filter{})
	require.Len(t, again, 3)
	for i := range platforms {
		assert.Same(t, platforms[i], again[i])
	}
	assert.Equal(t, 3, r.Platforms().Len())
}

func TestPlatforms_UnmappedBackendIsSkipped(t *testing.T) {
	loader := urfake.NewLoader()
	cuda := loader.AddAdapter(ur.BackendCUDA, 1)
	native := loader.AddAdapter(ur.BackendNativeCPU, 1, 1)
	hip := loader.AddAdapter(ur.BackendHIP, 2)
	r := newRegistry(t, loader)

	platforms := Platforms(r, Filter{})

	want := []ur.PlatformHandle{cuda.Platforms[0].Handle, hip.Platforms[0].Handle}
	if diff := cmp.Diff(want, handles(platforms)); diff != "" {
		t.Errorf("platform handles mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, loader.Released(native))
}

func TestPlatforms_DeviceNumberingAcrossEmptyPlatform(t *testing.T) {
	loader := urfake.NewLoader()
	loader.AddAdapter(ur.BackendOpenCL, 2, 0, 3)
	r := newRegistry(t, loader)

	platforms := Platforms(r, Filter{})
	require.Len(t, platforms, 2)

	first, count := platforms[0].DeviceIDRange()
	assert.Equal(t, [2]int{0, 2}, [2]int{first, count})
	first, count = platforms[1].DeviceIDRange()
	assert.Equal(t, [2]int{2, 3}, [2]int{first, count})

	withEmpty := Platforms(r, Filter{KeepEmpty: true})
	require.Len(t, withEmpty, 3)
	first, count = withEmpty[1].DeviceIDRange()
	assert.Equal(t, [2]int{2, 0}, [2]int{first, count})
}

func TestPlatforms_BackendFilterKeepsNumbering(t *testing.T) {
	loader := urfake.NewLoader()
	fa := loader.AddAdapter(ur.BackendOpenCL, 2, 4, 3)
	fa.Platforms[1].Backend = ur.BackendLevelZero
	r := newRegistry(t, loader)

	platforms := Platforms(r, Filter{Backends: []backend.Kind{backend.KindOpenCL}})
	require.Len(t, platforms, 2)
	assert.Equal(t, fa.Platforms[2].Handle, platforms[1].Handle())

	first, count := platforms[1].DeviceIDRange()
	assert.Equal(t, 6, first)
	assert.Equal(t, 3, count)
}

func TestPlatforms_NumberingIndependentOfEarlierFilters(t *testing.T) {
	opencl := Filter{Backends: []backend.Kind{backend.KindOpenCL}}
	levelZero := Filter{Backends: []backend.Kind{backend.KindLevelZero}}

	tests := []struct {
		name   string
		passes []Filter
	}{
		{name: "unfiltered then filtered", passes: []Filter{{}, opencl}},
		{name: "filtered then unfiltered", passes: []Filter{opencl, {}}},
		{name: "disjoint filters", passes: []Filter{levelZero, opencl, levelZero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := urfake.NewLoader()
			fa := loader.AddAdapter(ur.BackendOpenCL, 2, 4, 3)
			fa.Platforms[1].Backend = ur.BackendLevelZero
			r := newRegistry(t, loader)

			for _, f := range tt.passes {
				Platforms(r, f)
			}

			want := [][2]int{{0, 2}, {2, 4}, {6, 3}}
			all := Platforms(r, Filter{})
			require.Len(t, all, 3)
			for i, p := range all {
				first, count := p.DeviceIDRange()
				assert.Equal(t, want[i], [2]int{first, count}, "platform %d", i)
			}
		})
	}
}

func TestPlatforms_ConcurrentFiltersAgreeOnNumbering(t *testing.T) {
	loader := urfake.NewLoader()
	fa := loader.AddAdapter(ur.BackendOpenCL, 2, 4, 3)
	fa.Platforms[1].Backend = ur.BackendLevelZero
	r := newRegistry(t, loader)

	filters := []Filter{{}, {Backends: []backend.Kind{backend.KindOpenCL}}, {Backends: []backend.Kind{backend.KindLevelZero}}}

	var wg sync.WaitGroup
	results := make([][]Info, 30)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Describe(Platforms(r, filters[i%len(filters)]))
		}(i)
	}
	wg.Wait()

	firstIDs := map[string]int{}
	for _, infos := range results {
		for _, info := range infos {
			if id, ok := firstIDs[info.Name]; ok {
				assert.Equal(t, id, info.FirstDeviceID, info.Name)
				continue
			}
			firstIDs[info.Name] = info.FirstDeviceID
		}
	}
}

func TestPlatforms_FaultyAdapterDoesNotSpoilOthers(t *testing.T) {
	loader := urfake.NewLoader()
	bad := loader.AddAdapter(ur.BackendCUDA, 1)
	bad.PlatformResult = ur.ErrorDeviceLost
	good := loader.AddAdapter(ur.BackendHIP, 1)
	r := newRegistry(t, loader)

	platforms := Platforms(r, Filter{})
	require.Len(t, platforms, 1)
	assert.Equal(t, good.Platforms[0].Handle, platforms[0].Handle())
}

func TestPlatforms_LoaderFailureYieldsNothing(t *testing.T) {
	loader := urfake.NewLoader()
	loader.AddAdapter(ur.BackendCUDA, 1)
	loader.Fail(ur.APILoaderInit, ur.ErrorUninitialized)
	r := newRegistry(t, loader)

	assert.Empty(t, Platforms(r, Filter{}))
}

func TestPlatforms_AfterCloseYieldsNothing(t *testing.T) {
	loader := urfake.NewLoader()
	loader.AddAdapter(ur.BackendCUDA, 1)
	r := newRegistry(t, loader)

	require.Len(t, Platforms(r, Filter{}), 1)
	require.NoError(t, r.Close())
	assert.Empty(t, Platforms(r, Filter{}))
}

func TestPlatforms_RecordsMetrics(t *testing.T) {
	loader := urfake.NewLoader()
	loader.AddAdapter(ur.BackendCUDA, 1, 1)
	reg := prometheus.NewRegistry()
	r := newRegistry(t, loader, registry.WithMetrics(metrics.New(reg)))

	Platforms(r, Filter{})

	n, err := testutil.GatherAndCount(reg, "synadapt_platforms", "synadapt_discovery_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(reg, "synadapt_adapters_loaded_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetPlatforms_AfterShutdown(t *testing.T) {
	loader := urfake.NewLoader()
	loader.AddAdapter(ur.BackendLevelZero, 1)
	require.NoError(t, registry.Configure(registry.WithOpener(func() (ur.Loader, error) { return loader, nil })))

	require.Len(t, GetPlatforms(Filter{}), 1)

	registry.Shutdown()
	registry.Shutdown()

	assert.Empty(t, GetPlatforms(Filter{}))
	assert.True(t, loader.TornDown())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]string{"cuda", "ze"}, true)
	require.NoError(t, err)
	assert.True(t, f.KeepEmpty)
	assert.True(t, f.Allows(backend.KindLevelZero))
	assert.False(t, f.Allows(backend.KindHIP))

	all, err := ParseFilter([]string{"all"}, false)
	require.NoError(t, err)
	assert.True(t, all.Allows(backend.KindHIP))

	_, err = ParseFilter([]string{"vulkan"}, false)
	assert.ErrorIs(t, err, backend.ErrUnknownKind)
}

func TestDescribe(t *testing.T) {
	loader := urfake.NewLoader()
	loader.AddAdapter(ur.BackendCUDA, 2)
	loader.AddAdapter(ur.BackendHIP, 1)
	r := newRegistry(t, loader)

	got := Describe(Platforms(r, Filter{}))
	want := []Info{
		{Backend: backend.KindCUDA, Name: "UR_BACKEND_CUDA platform 0", Vendor: "Fake Vendor", Version: "1.0", FirstDeviceID: 0, DeviceCount: 2},
		{Backend: backend.KindHIP, Name: "UR_BACKEND_HIP platform 0", Vendor: "Fake Vendor", Version: "1.0", FirstDeviceID: 0, DeviceCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Describe mismatch (-want +got):\n%s", diff)
	}
}
