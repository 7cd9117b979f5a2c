// Package grpc serves the platform list over gRPC.
//
// The service has a single unary method taking google.protobuf.Empty and
// returning a google.protobuf.Struct of the form {"platforms": [...]}, so it
// needs no generated code.
package grpc

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/discovery"
	"github.com/ekisa-team/synadapt/internal/mapsafe"
)

const (
	// ServiceName is the fully qualified name of the discovery service.
	ServiceName = "synadapt.v1.Discovery"

	listPlatformsMethod = "/" + ServiceName + "/ListPlatforms"
)

// DiscoveryServer is the server API of the discovery service.
type DiscoveryServer interface {
	ListPlatforms(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

var discoveryServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiscoveryServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{
			MethodName: "ListPlatforms",
			Handler:    listPlatformsHandler,
		},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "synadapt/v1/discovery.proto",
}

// RegisterDiscoveryServer registers srv with s.
func RegisterDiscoveryServer(s gogrpc.ServiceRegistrar, srv DiscoveryServer) {
	s.RegisterService(&discoveryServiceDesc, srv)
}

func listPlatformsHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiscoveryServer).ListPlatforms(ctx, in)
	}

	info := &gogrpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listPlatformsMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DiscoveryServer).ListPlatforms(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type platformList struct {
	Platforms []discovery.Info `json:"platforms"`
}

func encodePlatforms(infos []discovery.Info) (*structpb.Struct, error) {
	if infos == nil {
		infos = []discovery.Info{}
	}

	data, err := json.Marshal(platformList{Platforms: infos})
	if err != nil {
		return nil, errors.Wrap(err, "grpc: encode platforms")
	}

	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, errors.Wrap(err, "grpc: encode platforms")
	}
	return out, nil
}

func decodePlatforms(in *structpb.Struct) ([]discovery.Info, error) {
	items := mapsafe.Objects(in.AsMap(), "platforms")

	infos := make([]discovery.Info, 0, len(items))
	for _, item := range items {
		var kind backend.Kind
		if err := kind.UnmarshalText([]byte(mapsafe.Get(item, "backend", ""))); err != nil {
			return nil, errors.Wrap(err, "grpc: decode platforms")
		}

		infos = append(infos, discovery.Info{
			Backend:       kind,
			Name:          mapsafe.Get(item, "name", ""),
			Vendor:        mapsafe.Get(item, "vendor", ""),
			Version:       mapsafe.Get(item, "version", ""),
			FirstDeviceID: mapsafe.Get(item, "first_device_id", 0),
			DeviceCount:   mapsafe.Get(item, "device_count", 0),
		})
	}
	return infos, nil
}

// ListPlatforms calls the discovery service over conn.
func ListPlatforms(ctx context.Context, conn gogrpc.ClientConnInterface) ([]discovery.Info, error) {
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, listPlatformsMethod, new(emptypb.Empty), out); err != nil {
		return nil, errors.Wrap(err, "grpc: list platforms")
	}
	return decodePlatforms(out)
}
