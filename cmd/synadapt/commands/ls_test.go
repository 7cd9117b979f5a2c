package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/discovery"
)

func init() {
	color.NoColor = true
}

func samplePlatforms() []discovery.Info {
	return []discovery.Info{
		{Backend: backend.KindLevelZero, Name: "Intel(R) Level-Zero", Vendor: "Intel(R) Corporation", Version: "1.3", FirstDeviceID: 0, DeviceCount: 1},
		{Backend: backend.KindOpenCL, Name: "Intel(R) OpenCL", Vendor: "Intel(R) Corporation", Version: "OpenCL 3.0", FirstDeviceID: 0, DeviceCount: 2},
		{Backend: backend.KindOpenCL, Name: "Portable Computing Language", Vendor: "The pocl project", Version: "OpenCL 3.0 PoCL", FirstDeviceID: 2, DeviceCount: 1},
	}
}

func TestPrintPlatforms_NoneFound(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPlatforms(&buf, nil, true))
	assert.Equal(t, "No platforms found.\n", buf.String())
}

func TestPrintPlatforms_Concise(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPlatforms(&buf, samplePlatforms(), false))

	assert.Equal(t, strings.Join([]string{
		"[level_zero:0] Intel(R) Level-Zero 1.3",
		"[opencl:0] Intel(R) OpenCL OpenCL 3.0",
		"[opencl:1] Portable Computing Language OpenCL 3.0 PoCL",
		"",
	}, "\n"), buf.String())
}

func TestPrintPlatforms_Verbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPlatforms(&buf, samplePlatforms(), true))

	out := buf.String()
	assert.Contains(t, out, "\nPlatforms: 3\n")
	assert.Contains(t, out, "PLATFORM")
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "The pocl project")
	assert.Contains(t, out, "1 (id 2)")
	assert.Contains(t, out, "2 (ids 0-1)")
}

func TestDeviceRange(t *testing.T) {
	assert.Equal(t, "0", deviceRange(discovery.Info{}))
	assert.Equal(t, "1 (id 4)", deviceRange(discovery.Info{FirstDeviceID: 4, DeviceCount: 1}))
	assert.Equal(t, "3 (ids 1-3)", deviceRange(discovery.Info{FirstDeviceID: 1, DeviceCount: 3}))
}
