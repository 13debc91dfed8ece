// Package response writes the bodies returned by the roster HTTP API.
// Successful responses carry the payload itself as JSON. Failures carry
// the error text encoded as a single JSON string.
package response

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/agentstation/roster/pkg/errors"
)

// NotFoundMessage is the plain-text body returned for unroutable requests.
const NotFoundMessage = "Invalid or malformed URL, please check and try again or report the issue."

// ErrorWriter turns a handler error into an HTTP response.
type ErrorWriter func(w http.ResponseWriter, err error)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := encode(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		body, _ = encode(err.Error())
		_, _ = w.Write(body)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Write errors are ignored as headers are already sent (best effort)
	_, _ = w.Write(body)
}

// OK writes data with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes data with 201 status.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error writes err's message as a JSON string with the given status.
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, err.Error())
}

// InternalError writes every failure as 500 with the error text. It is
// the default ErrorWriter.
func InternalError(w http.ResponseWriter, err error) {
	Error(w, http.StatusInternalServerError, err)
}

// ErrorFromType maps typed errors to distinct status codes. The body is
// the same JSON string InternalError writes.
func ErrorFromType(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}

// StatusFor returns the HTTP status ErrorFromType uses for err.
func StatusFor(err error) int {
	switch {
	case errors.IsValidationError(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsAlreadyExists(err):
		return http.StatusConflict
	case errors.IsPoolExhausted(err), errors.IsTimeout(err), errors.IsServiceUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NotFound writes the plain-text 404 used for unroutable requests.
func NotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(NotFoundMessage))
}

// encode marshals v without HTML escaping or a trailing newline.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
