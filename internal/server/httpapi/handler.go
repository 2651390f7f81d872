package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/tuidosync/internal/common"
)

type checkResponse struct {
	Exists   bool    `json:"exists"`
	LastSync *string `json:"lastSync,omitempty"`
	DataSize *int64  `json:"dataSize,omitempty"`
}

type uploadResponse struct {
	URL       string `json:"url"`
	Size      int64  `json:"size"`
	Timestamp string `json:"timestamp"`
}

type tokenResponse struct {
	APIToken string `json:"apiToken"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, nil, "ok")
}

func (s *HTTPServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	status, err := s.sync.Check(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, "check", err)
		return
	}

	resp := checkResponse{Exists: status.Exists, DataSize: status.DataSize}
	if status.LastSync != nil {
		ts := isoTime(*status.LastSync)
		resp.LastSync = &ts
	}
	writeOK(w, resp, "")
}

func (s *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sync.Download(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, "download", err)
		return
	}
	writeOK(w, snap, "")
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = common.ErrorPayloadTooLarge
		}
		s.fail(w, r, "upload", err)
		return
	}

	res, err := s.sync.Upload(r.Context(), tokenFromContext(r.Context()), body)
	if err != nil {
		s.fail(w, r, "upload", err)
		return
	}

	writeOK(w, uploadResponse{
		URL:       res.URL,
		Size:      res.Size,
		Timestamp: isoTime(res.Timestamp),
	}, msgSynced)
}

func (s *HTTPServer) handleRegenerateToken(w http.ResponseWriter, r *http.Request) {
	issued, err := s.tokens.RegenerateToken(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, "regenerate token", err)
		return
	}
	writeOK(w, tokenResponse{APIToken: issued.Token}, msgTokenRenewed)
}

// fail writes the mapped response; server-side faults are logged with the
// full error, which never reaches the client.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), op+" failed",
			"request_id", RequestIDFromContext(r.Context()),
			"error", err.Error())
	} else {
		s.logger.Debug(r.Context(), op+" rejected",
			"request_id", RequestIDFromContext(r.Context()),
			"status", status,
			"error", err.Error())
	}
	writeFail(w, status, msg)
}
