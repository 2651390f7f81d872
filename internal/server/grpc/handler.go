package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	"github.com/dmitrijs2005/tuidosync/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func (s *GRPCServer) Check(ctx context.Context, _ *CheckRequest) (*CheckResponse, error) {
	st, err := s.sync.Check(ctx, tokenFromContext(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, "check", err)
	}

	resp := &CheckResponse{Exists: st.Exists, DataSize: st.DataSize}
	if st.LastSync != nil {
		resp.LastSync = st.LastSync.UTC().Format(timeLayout)
	}
	return resp, nil
}

func (s *GRPCServer) Download(ctx context.Context, _ *DownloadRequest) (*DownloadResponse, error) {
	snap, err := s.sync.Download(ctx, tokenFromContext(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, "download", err)
	}
	return &DownloadResponse{Snapshot: snap}, nil
}

func (s *GRPCServer) Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error) {
	res, err := s.sync.Upload(ctx, tokenFromContext(ctx), req.Snapshot)
	if err != nil {
		return nil, s.toStatus(ctx, "upload", err)
	}

	s.logger.Info(ctx, "Upload accepted", "size", res.Size)
	return &UploadResponse{
		URL:       res.URL,
		Size:      res.Size,
		Timestamp: res.Timestamp.UTC().Format(timeLayout),
		Message:   "Data synced successfully",
	}, nil
}

func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "invalid API token")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "no sync data found")
	case errors.Is(err, services.ErrInvalidSnapshot):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, services.ErrCorruptSnapshot):
		s.logger.Error(ctx, op+" failed", "error", err.Error())
		return status.Error(codes.DataLoss, err.Error())
	default:
		s.logger.Error(ctx, op+" failed", "error", err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

var _ SyncServiceServer = (*GRPCServer)(nil)
