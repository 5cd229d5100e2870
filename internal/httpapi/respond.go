// Package httpapi serves the membership query API over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope is the response format of every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   *Error `json:"error"`
	Meta    Meta   `json:"meta"`
}

// Meta contains request metadata.
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

// Error is a structured API error with an HTTP status code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(msg string) *Error {
	return &Error{Code: "VALIDATION_ERROR", Message: msg, Status: http.StatusBadRequest}
}

func notLoadedError() *Error {
	return &Error{Code: "NOT_LOADED", Message: "no filter loaded", Status: http.StatusServiceUnavailable}
}

func internalError(msg string) *Error {
	return &Error{Code: "INTERNAL_ERROR", Message: msg, Status: http.StatusInternalServerError}
}

func newMeta(r *http.Request) Meta {
	reqID := ""
	if r != nil {
		reqID = r.Header.Get(requestIDHeader)
	}
	return Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: reqID,
	}
}

// RespondJSON writes a success response.
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data, Meta: newMeta(r)})
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, err *Error) {
	writeEnvelope(w, err.Status, Envelope{Error: err, Meta: newMeta(r)})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
