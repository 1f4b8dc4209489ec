package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "taerae.channel.v1.MethodChannel"

const (
	invokeMethod   = "/" + ServiceName + "/Invoke"
	describeMethod = "/" + ServiceName + "/Describe"
	healthMethod   = "/" + ServiceName + "/Health"
	shutdownMethod = "/" + ServiceName + "/Shutdown"
)

// methodChannelServer is the server API for the MethodChannel service.
// Messages are protobuf well-known types so no generated code is needed.
type methodChannelServer interface {
	Invoke(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Describe(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Health(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

var methodChannelServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*methodChannelServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Invoke", Handler: invokeHandler},
		{MethodName: "Describe", Handler: describeHandler},
		{MethodName: "Health", Handler: healthHandler},
		{MethodName: "Shutdown", Handler: shutdownHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taerae/channel/v1/channel.proto",
}

func invokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(methodChannelServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: invokeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(methodChannelServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func describeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(methodChannelServer).Describe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: describeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(methodChannelServer).Describe(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(methodChannelServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: healthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(methodChannelServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func shutdownHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(methodChannelServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: shutdownMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(methodChannelServer).Shutdown(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
