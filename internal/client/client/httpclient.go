package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/common"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient targets baseURL, e.g. "https://sync.example.com/api".
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Check(ctx context.Context) (*Status, error) {
	out := &Status{}
	if err := c.do(ctx, http.MethodGet, "/sync/check", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Upload(ctx context.Context, snapshot []byte) (*UploadResult, error) {
	out := &UploadResult{}
	if err := c.do(ctx, http.MethodPost, "/sync/upload", snapshot, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Download(ctx context.Context) ([]byte, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/sync/download", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode != http.StatusOK {
		return mapStatus(resp.StatusCode, env.Error)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return &APIError{Code: resp.StatusCode, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func mapStatus(code int, msg string) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusRequestEntityTooLarge:
		return ErrTooLarge
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", code)
	}
	return &APIError{Code: code, Message: msg}
}

// IsClientFault reports whether err is a rejection of the submitted data.
func IsClientFault(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500
}
