package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	"github.com/dmitrijs2005/tuidosync/internal/server/services"
	"github.com/dmitrijs2005/tuidosync/internal/snapshot"
)

// Envelope is the shape of every response body.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client-facing error texts.
const (
	msgBadAuthHeader = "Missing or invalid Authorization header"
	msgInvalidToken  = "Invalid API token"
	msgNotFound      = "No sync data found"
	msgInvalidData   = "Invalid data structure"
	msgCorruptData   = "Stored data has invalid structure"
	msgTooLarge      = "Request body too large"
	msgInternal      = "Internal server error"
	msgSynced        = "Data synced successfully"
	msgTokenRenewed  = "API token regenerated successfully"
	isoMillis        = "2006-01-02T15:04:05.000Z07:00"
)

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeOK(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Error: msg})
}

// classify maps a service error to a status and a client-safe message.
// Validation issues are the only detail that reaches the client.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgInvalidToken
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrorPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, services.ErrInvalidSnapshot):
		return http.StatusBadRequest, withIssues(msgInvalidData, err)
	case errors.Is(err, services.ErrCorruptSnapshot):
		return http.StatusInternalServerError, withIssues(msgCorruptData, err)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func withIssues(prefix string, err error) string {
	var verr *snapshot.ValidationError
	if errors.As(err, &verr) && len(verr.Issues) > 0 {
		return prefix + ": " + verr.Issues.String()
	}
	return prefix
}

func isoTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}
