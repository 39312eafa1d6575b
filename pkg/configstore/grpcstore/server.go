package grpcstore

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/halo-device/halo-go/pkg/configstore"
)

// Backend is what a Server serves.
type Backend interface {
	configstore.Store
	configstore.TagRegistry
}

// Server exposes a Backend (usually configstore.Memory) over gRPC.
type Server struct {
	backend Backend
}

// NewServer creates a server for backend.
func NewServer(backend Backend) *Server {
	return &Server{backend: backend}
}

func (s *Server) UpdateDeviceConfig(ctx context.Context, req *UpdateDeviceConfigRequest) (*ConfigResponse, error) {
	cfg, err := s.backend.UpdateDeviceConfig(ctx, req.DeviceID, req.Patch, req.Identity)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ConfigResponse{Config: cfg}, nil
}

func (s *Server) GetDeviceConfig(ctx context.Context, req *GetDeviceConfigRequest) (*ConfigResponse, error) {
	cfg, err := s.backend.GetDeviceConfig(ctx, req.DeviceID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ConfigResponse{Config: cfg}, nil
}

func (s *Server) CreateTag(ctx context.Context, req *CreateTagRequest) (*TagResponse, error) {
	rec, err := s.backend.CreateTag(ctx, req.DeviceID, req.Content)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TagResponse{Record: rec}, nil
}

func (s *Server) MarkTagWritten(ctx context.Context, req *MarkTagWrittenRequest) (*TagResponse, error) {
	rec, err := s.backend.MarkTagWritten(ctx, req.ID, req.UID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TagResponse{Record: rec}, nil
}

var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{configstore.ErrEmptyDeviceID, codes.InvalidArgument},
	{configstore.ErrEmptyIdentity, codes.InvalidArgument},
	{configstore.ErrUnknownField, codes.InvalidArgument},
	{configstore.ErrFieldType, codes.InvalidArgument},
	{configstore.ErrDeviceNotFound, codes.NotFound},
	{configstore.ErrTagNotFound, codes.NotFound},
	{configstore.ErrTagAlreadyWritten, codes.FailedPrecondition},
}

func toStatus(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return status.Error(sc.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

var _ DeviceConfigServiceServer = (*Server)(nil)
