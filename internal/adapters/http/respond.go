package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"household/internal/adapters/http/wire"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// badRequest marks a body that could not be decoded.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

// strictDecode decodes JSON from the request body, rejecting unknown fields.
// An empty body leaves v untouched.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &badRequest{msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if dec.More() {
		return &badRequest{msg: "invalid JSON: trailing data"}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("internal_error", "error", fmt.Sprintf("encode response: %v", err))
	}
}

// writeError maps err to a status and JSON body. Unmapped errors are logged and
// reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var bad *badRequest
	if errors.As(err, &bad) {
		writeJSON(w, http.StatusBadRequest, wire.ErrorBody{Error: bad.msg, Code: wire.CodeBadRequest})
		return
	}
	status, body, shown := wire.FromError(err)
	if !shown {
		internalError(w, r, err)
		return
	}
	if status >= http.StatusInternalServerError {
		slog.Warn("request_failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err.Error())
	}
	writeJSON(w, status, body)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	_, body, _ := wire.FromError(err)
	writeJSON(w, http.StatusInternalServerError, body)
}
