package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/discovery"
	"github.com/ekisa-team/synadapt/internal/metrics"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListPlatforms(ctx context.Context) ([]discovery.Info, error) {
	args := m.Called(ctx)
	infos, _ := args.Get(0).([]discovery.Info)
	return infos, args.Error(1)
}

func TestHandler_Platforms(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListPlatforms", mock.Anything).Return([]discovery.Info{
		{Backend: backend.KindCUDA, Name: "NVIDIA CUDA BACKEND", Vendor: "NVIDIA Corporation", Version: "CUDA 12.4", DeviceCount: 2},
	}, nil)

	rec := httptest.NewRecorder()
	NewHandler(lister, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/platforms", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"platforms":[{"backend":"cuda","name":"NVIDIA CUDA BACKEND","vendor":"NVIDIA Corporation","version":"CUDA 12.4","first_device_id":0,"device_count":2}]}`, rec.Body.String())

	var resp PlatformsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, backend.KindCUDA, resp.Platforms[0].Backend)
	lister.AssertExpectations(t)
}

func TestHandler_NoPlatformsIsEmptyList(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListPlatforms", mock.Anything).Return(nil, nil)

	rec := httptest.NewRecorder()
	NewHandler(lister, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/platforms", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"platforms":[]}`, rec.Body.String())
}

func TestHandler_ListerError(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListPlatforms", mock.Anything).Return(nil, errors.New("canceled"))

	rec := httptest.NewRecorder()
	NewHandler(lister, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/platforms", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(new(MockLister), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/platforms", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).AdapterLoaded("hip")

	rec := httptest.NewRecorder()
	NewHandler(new(MockLister), reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `synadapt_adapters_loaded_total{backend="hip"} 1`)

	rec = httptest.NewRecorder()
	NewHandler(new(MockLister), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServer(t *testing.T) {
	srv := NewServer(8086, http.NotFoundHandler())
	assert.Equal(t, ":8086", srv.Addr)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}
