package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

// Server exposes a plugin implementation over the MethodChannel service.
type Server struct {
	impl sdk.Plugin
}

// NewServer creates a server for impl.
func NewServer(impl sdk.Plugin) *Server {
	return &Server{impl: impl}
}

// Register registers the MethodChannel service for impl on s.
func Register(s grpc.ServiceRegistrar, impl sdk.Plugin) {
	s.RegisterService(&methodChannelServiceDesc, NewServer(impl))
}

// Invoke answers one method call.
func (s *Server) Invoke(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	call, err := decodeCall(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode call: %v", err)
	}

	resp := s.impl.HandleMethodCall(ctx, call)

	out, err := encodeResponse(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// Describe returns the plugin metadata.
func (s *Server) Describe(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := encodeMetadata(s.impl.Metadata())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode metadata: %v", err)
	}
	return out, nil
}

// Health returns the plugin health status.
func (s *Server) Health(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := encodeHealth(s.impl.HealthCheck(ctx))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode health: %v", err)
	}
	return out, nil
}

// Shutdown releases plugin resources.
func (s *Server) Shutdown(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.impl.Shutdown(ctx); err != nil {
		return nil, status.Errorf(codes.Internal, "shutdown: %v", err)
	}
	return &emptypb.Empty{}, nil
}

var _ methodChannelServer = (*Server)(nil)
