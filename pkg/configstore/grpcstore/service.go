package grpcstore

import (
	"context"

	"google.golang.org/grpc"

	"github.com/halo-device/halo-go/pkg/configstore"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "halo.config.v1.DeviceConfigService"

const (
	methodUpdateDeviceConfig = "/" + ServiceName + "/UpdateDeviceConfig"
	methodGetDeviceConfig    = "/" + ServiceName + "/GetDeviceConfig"
	methodCreateTag          = "/" + ServiceName + "/CreateTag"
	methodMarkTagWritten     = "/" + ServiceName + "/MarkTagWritten"
)

type UpdateDeviceConfigRequest struct {
	DeviceID string            `json:"deviceId"`
	Patch    configstore.Patch `json:"patch"`
	Identity string            `json:"identity"`
}

type GetDeviceConfigRequest struct {
	DeviceID string `json:"deviceId"`
}

type ConfigResponse struct {
	Config configstore.Config `json:"config"`
}

type CreateTagRequest struct {
	DeviceID string `json:"deviceId"`
	Content  string `json:"content"`
}

type MarkTagWrittenRequest struct {
	ID  string `json:"id"`
	UID string `json:"uid"`
}

type TagResponse struct {
	Record configstore.TagRecord `json:"record"`
}

// DeviceConfigServiceServer is the server API of the config service.
type DeviceConfigServiceServer interface {
	UpdateDeviceConfig(context.Context, *UpdateDeviceConfigRequest) (*ConfigResponse, error)
	GetDeviceConfig(context.Context, *GetDeviceConfigRequest) (*ConfigResponse, error)
	CreateTag(context.Context, *CreateTagRequest) (*TagResponse, error)
	MarkTagWritten(context.Context, *MarkTagWrittenRequest) (*TagResponse, error)
}

func unaryHandler[Req any, Resp any](call func(DeviceConfigServiceServer, context.Context, *Req) (*Resp, error), fullMethod string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(DeviceConfigServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*Req))
		})
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DeviceConfigServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UpdateDeviceConfig",
			Handler:    unaryHandler(DeviceConfigServiceServer.UpdateDeviceConfig, methodUpdateDeviceConfig),
		},
		{
			MethodName: "GetDeviceConfig",
			Handler:    unaryHandler(DeviceConfigServiceServer.GetDeviceConfig, methodGetDeviceConfig),
		},
		{
			MethodName: "CreateTag",
			Handler:    unaryHandler(DeviceConfigServiceServer.CreateTag, methodCreateTag),
		},
		{
			MethodName: "MarkTagWritten",
			Handler:    unaryHandler(DeviceConfigServiceServer.MarkTagWritten, methodMarkTagWritten),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "halo/config/v1/config.proto",
}

// RegisterDeviceConfigServiceServer registers srv with s.
func RegisterDeviceConfigServiceServer(s grpc.ServiceRegistrar, srv DeviceConfigServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}
