package grpc

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/tuidosync/internal/snapshot"
	"google.golang.org/grpc"
)

const serviceName = "tuidosync.SyncService"

const (
	methodCheck    = "/" + serviceName + "/Check"
	methodDownload = "/" + serviceName + "/Download"
	methodUpload   = "/" + serviceName + "/Upload"
)

type CheckRequest struct{}

type CheckResponse struct {
	Exists   bool   `json:"exists"`
	LastSync string `json:"lastSync,omitempty"`
	DataSize *int64 `json:"dataSize,omitempty"`
}

type DownloadRequest struct{}

type DownloadResponse struct {
	Snapshot *snapshot.Snapshot `json:"snapshot"`
}

// UploadRequest carries the snapshot undecoded; validation happens in the
// service exactly as for HTTP uploads.
type UploadRequest struct {
	Snapshot json.RawMessage `json:"snapshot"`
}

type UploadResponse struct {
	URL       string `json:"url"`
	Size      int64  `json:"size"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// SyncServiceServer is implemented by GRPCServer.
type SyncServiceServer interface {
	Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error)
	Download(ctx context.Context, req *DownloadRequest) (*DownloadResponse, error)
	Upload(ctx context.Context, req *UploadRequest) (*UploadResponse, error)
}

// SyncServiceDesc is registered in place of protoc output; messages travel
// through jsonCodec.
var SyncServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SyncServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Check", Handler: checkHandler},
		{MethodName: "Download", Handler: downloadHandler},
		{MethodName: "Upload", Handler: uploadHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tuidosync/sync",
}

func checkHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCheck}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).Check(ctx, req.(*CheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func downloadHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DownloadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).Download(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDownload}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).Download(ctx, req.(*DownloadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func uploadHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UploadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).Upload(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodUpload}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).Upload(ctx, req.(*UploadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SyncServiceClient calls SyncServiceDesc methods with the JSON codec.
type SyncServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSyncServiceClient(cc grpc.ClientConnInterface) *SyncServiceClient {
	return &SyncServiceClient{cc: cc}
}

func (c *SyncServiceClient) Check(ctx context.Context, opts ...grpc.CallOption) (*CheckResponse, error) {
	out := new(CheckResponse)
	if err := c.invoke(ctx, methodCheck, &CheckRequest{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SyncServiceClient) Download(ctx context.Context, opts ...grpc.CallOption) (*DownloadResponse, error) {
	out := new(DownloadResponse)
	if err := c.invoke(ctx, methodDownload, &DownloadRequest{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SyncServiceClient) Upload(ctx context.Context, data []byte, opts ...grpc.CallOption) (*UploadResponse, error) {
	out := new(UploadResponse)
	if err := c.invoke(ctx, methodUpload, &UploadRequest{Snapshot: data}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SyncServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
