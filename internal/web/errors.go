package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request id; the client gets the
// coded message from core.MapError, as JSON for API callers and as an
// ErrorAlert fragment for HTMX requests.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/stmtimport/internal/core"
	"github.com/JonMunkholm/stmtimport/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// badRequest marks an error caused by a malformed request.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

// codeStatus maps user message codes to HTTP statuses. Codes not listed
// fall back to 422 for client input families and 500 otherwise.
var codeStatus = map[string]int{
	"IMP001":  http.StatusNotFound,
	"STR001":  http.StatusNotFound,
	"IMP007":  http.StatusNotFound,
	"IMP002":  http.StatusConflict,
	"DB001":   http.StatusConflict,
	"IMP003":  http.StatusServiceUnavailable,
	"DB003":   http.StatusServiceUnavailable,
	"DB004":   http.StatusServiceUnavailable,
	"DB005":   http.StatusServiceUnavailable,
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE004": http.StatusBadRequest,
	"IMP004":  http.StatusBadRequest,
	"IMP005":  http.StatusGatewayTimeout,
	"RATE001": http.StatusTooManyRequests,
}

// statusFor picks the HTTP status for err.
func statusFor(err error, msg core.UserMessage) int {
	var br badRequest
	if errors.As(err, &br) && msg.Code == "ERR000" {
		return http.StatusBadRequest
	}
	if status, ok := codeStatus[msg.Code]; ok {
		return status
	}
	for _, prefix := range []string{"MAP", "STR", "FILE"} {
		if strings.HasPrefix(msg.Code, prefix) {
			return http.StatusUnprocessableEntity
		}
	}
	if errors.As(err, &br) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(err, msg)

	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request error", attrs...)
	} else {
		slog.Warn("request error", attrs...)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			slog.Error("render error alert", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
