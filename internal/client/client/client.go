// Package client talks to a tuidosync server on behalf of the desktop
// client. Two transports implement Client: HTTP (the primary surface) and
// gRPC.
package client

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized = errors.New("invalid API token")
	ErrNotFound     = errors.New("no sync data found")
	ErrTooLarge     = errors.New("data size exceeds the server limit")
	ErrUnavailable  = errors.New("server unavailable")
)

// Status mirrors the server's check response.
type Status struct {
	Exists   bool   `json:"exists"`
	LastSync string `json:"lastSync,omitempty"`
	DataSize *int64 `json:"dataSize,omitempty"`
}

type UploadResult struct {
	URL       string `json:"url"`
	Size      int64  `json:"size"`
	Timestamp string `json:"timestamp"`
}

// APIError is a rejection the server explained; Message is the server's
// error text.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client interface {
	Check(ctx context.Context) (*Status, error)
	Upload(ctx context.Context, snapshot []byte) (*UploadResult, error)
	// Download returns the stored snapshot as JSON.
	Download(ctx context.Context) ([]byte, error)
	Close() error
}
