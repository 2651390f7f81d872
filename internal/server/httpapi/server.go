// Package httpapi is the HTTP surface of the sync service: the routes the
// desktop client calls, the shared response envelope and the status mapping
// of service errors.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/logging"
	"github.com/dmitrijs2005/tuidosync/internal/server/services"
	"github.com/dmitrijs2005/tuidosync/internal/snapshot"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxBodyBytes caps upload bodies when no limit is configured.
const DefaultMaxBodyBytes = 10 << 20

const shutdownTimeout = 10 * time.Second

type SyncService interface {
	Check(ctx context.Context, token string) (*services.Status, error)
	Download(ctx context.Context, token string) (*snapshot.Snapshot, error)
	Upload(ctx context.Context, token string, body []byte) (*services.UploadResult, error)
}

type TokenService interface {
	RegenerateToken(ctx context.Context, token string) (*services.Issued, error)
}

type HTTPServer struct {
	address string
	sync    SyncService
	tokens  TokenService
	logger  logging.Logger
	maxBody int64
}

func NewHTTPServer(address string, l logging.Logger, sync SyncService, tokens TokenService, maxBody int64) *HTTPServer {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &HTTPServer{
		address: address,
		sync:    sync,
		tokens:  tokens,
		logger:  l.With("module", "http_server"),
		maxBody: maxBody,
	}
}

// Router builds the chi mux with all routes and middleware.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireBearer)

		r.Get("/sync/check", s.handleCheck)
		r.Get("/sync/download", s.handleDownload)
		r.Post("/sync/upload", s.handleUpload)
		r.Post("/token/regenerate", s.handleRegenerateToken)
	})

	return r
}

// Run listens on the configured address until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve handles connections on lis and shuts down gracefully when ctx is
// cancelled.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server started", "address", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "HTTP server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
