// Package grpc exposes the sync operations over gRPC. Messages are JSON
// encoded (see jsonCodec) and the service is registered from a hand-written
// descriptor.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/tuidosync/internal/logging"
	"github.com/dmitrijs2005/tuidosync/internal/server/services"
	"github.com/dmitrijs2005/tuidosync/internal/snapshot"
	"google.golang.org/grpc"
)

type SyncService interface {
	Check(ctx context.Context, token string) (*services.Status, error)
	Download(ctx context.Context, token string) (*snapshot.Snapshot, error)
	Upload(ctx context.Context, token string, body []byte) (*services.UploadResult, error)
}

type GRPCServer struct {
	address string
	sync    SyncService
	logger  logging.Logger
	maxMsg  int
}

func NewGRPCServer(a string, l logging.Logger, sync SyncService, maxMsg int) *GRPCServer {
	return &GRPCServer{
		address: a,
		sync:    sync,
		logger:  l.With("module", "grpc_server"),
		maxMsg:  maxMsg,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
	}
	if s.maxMsg > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(s.maxMsg))
	}

	srv := grpc.NewServer(opts...)
	srv.RegisterService(&SyncServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
