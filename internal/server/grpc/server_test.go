package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/discovery"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListPlatforms(ctx context.Context) ([]discovery.Info, error) {
	args := m.Called(ctx)
	infos, _ := args.Get(0).([]discovery.Info)
	return infos, args.Error(1)
}

func startServer(t *testing.T, lister discovery.Lister) *gogrpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(lister)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestServer_ListPlatforms(t *testing.T) {
	want := []discovery.Info{
		{Backend: backend.KindLevelZero, Name: "Intel(R) oneAPI Unified Runtime over Level-Zero", Vendor: "Intel(R) Corporation", Version: "1.3", FirstDeviceID: 0, DeviceCount: 1},
		{Backend: backend.KindOpenCL, Name: "Intel(R) OpenCL Graphics", Vendor: "Intel(R) Corporation", Version: "OpenCL 3.0", FirstDeviceID: 0, DeviceCount: 2},
	}
	lister := new(MockLister)
	lister.On("ListPlatforms", mock.Anything).Return(want, nil)

	conn := startServer(t, lister)

	got, err := ListPlatforms(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	lister.AssertExpectations(t)
}

func TestServer_EmptyList(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListPlatforms", mock.Anything).Return(nil, nil)

	got, err := ListPlatforms(context.Background(), startServer(t, lister))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestServer_ListerErrorIsUnavailable(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListPlatforms", mock.Anything).Return(nil, errors.New("loader gone"))

	_, err := ListPlatforms(context.Background(), startServer(t, lister))
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(errors.UnwrapAll(err)))
}

func TestServer_HealthFollowsFirstListing(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListPlatforms", mock.Anything).Return([]discovery.Info{}, nil)

	conn := startServer(t, lister)
	client := healthpb.NewHealthClient(conn)
	req := &healthpb.HealthCheckRequest{Service: ServiceName}

	resp, err := client.Check(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	_, err = ListPlatforms(context.Background(), conn)
	require.NoError(t, err)

	resp, err = client.Check(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestEncodeDecodeKeepsKinds(t *testing.T) {
	in := []discovery.Info{{Backend: backend.KindHIP, FirstDeviceID: 3, DeviceCount: 4}}

	st, err := encodePlatforms(in)
	require.NoError(t, err)
	assert.Equal(t, "hip", st.GetFields()["platforms"].GetListValue().GetValues()[0].GetStructValue().GetFields()["backend"].GetStringValue())

	out, err := decodePlatforms(st)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
