package ur

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_String(t *testing.T) {
	assert.Equal(t, "UR_RESULT_SUCCESS", Success.String())
	assert.Equal(t, "UR_RESULT_ERROR_ADAPTER_SPECIFIC", ErrorAdapterSpecific.String())
	assert.Equal(t, "<unknown result 12345>", Result(12345).String())
}

func TestResult_OK(t *testing.T) {
	assert.True(t, Success.OK())
	assert.False(t, ErrorUnknown.OK())
}

func TestBackend_String(t *testing.T) {
	assert.Equal(t, "UR_BACKEND_CUDA", BackendCUDA.String())
	assert.Equal(t, "UR_BACKEND_UNKNOWN", Backend(99).String())
}

func TestSymbols_Unique(t *testing.T) {
	seen := make(map[API]bool, len(Symbols))
	for _, s := range Symbols {
		assert.False(t, seen[s], "duplicate symbol %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, 11)
}
