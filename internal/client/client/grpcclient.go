package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	gs "github.com/dmitrijs2005/tuidosync/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	conn   *grpc.ClientConn
	client *gs.SyncServiceClient
	token  string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, c.token), method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to target. Extra dial options are appended
// after the defaults (insecure transport, token interceptor).
func NewGRPCClient(target, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{token: token}

	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(target, dial...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = gs.NewSyncServiceClient(conn)
	return c, nil
}

func (c *GRPCClient) Check(ctx context.Context) (*Status, error) {
	resp, err := c.client.Check(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &Status{Exists: resp.Exists, LastSync: resp.LastSync, DataSize: resp.DataSize}, nil
}

func (c *GRPCClient) Upload(ctx context.Context, snapshot []byte) (*UploadResult, error) {
	resp, err := c.client.Upload(ctx, snapshot)
	if err != nil {
		return nil, mapError(err)
	}
	return &UploadResult{URL: resp.URL, Size: resp.Size, Timestamp: resp.Timestamp}, nil
}

func (c *GRPCClient) Download(ctx context.Context) ([]byte, error) {
	resp, err := c.client.Download(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return json.Marshal(resp.Snapshot)
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.NotFound:
		return ErrNotFound
	case codes.ResourceExhausted:
		return ErrTooLarge
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.InvalidArgument:
		return &APIError{Code: http.StatusBadRequest, Message: st.Message()}
	default:
		return &APIError{Code: http.StatusInternalServerError, Message: st.Message()}
	}
}
