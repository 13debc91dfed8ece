package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agentstation/roster/pkg/logging"
)

// TestLogger tests request tracing and the context logger.
func TestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	var sawRequestID string
	handler := chimw.RequestID(Logger(tl.Logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawRequestID = logging.RequestID(r.Context())
			logging.FromContext(r.Context()).Info().Msg("inside handler")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("created"))
		}),
	))

	req := httptest.NewRequest(http.MethodPut, "/api/players", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	if sawRequestID == "" {
		t.Error("expected request id in handler context")
	}
	for _, want := range []string{`"message":"HTTP request"`, `"status":201`, `"bytes":7`, `"method":"PUT"`, `"path":"/api/players"`, `"message":"inside handler"`} {
		if !tl.Contains(want) {
			t.Errorf("expected log output to contain %s, got %s", want, tl.Output())
		}
	}
}

// TestRecovery tests panic recovery.
func TestRecovery(t *testing.T) {
	tl := logging.NewTestLogger(t)

	handler := Recovery(tl.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/players", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if w.Body.String() != `"internal server error"` {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if !tl.Contains("Panic recovered") {
		t.Error("expected panic to be logged")
	}
}

// TestRecovery_AbortHandler tests that http.ErrAbortHandler is re-raised.
func TestRecovery_AbortHandler(t *testing.T) {
	handler := Recovery(logging.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if err := recover(); err != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", err)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

// TestResponseWriter tests status capture.
func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusTeapot)
	_, _ = rw.Write([]byte("abc"))
	rw.Flush()

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("expected first status to stick, got %d", rw.statusCode)
	}
	if rw.bytes != 3 {
		t.Errorf("expected 3 bytes, got %d", rw.bytes)
	}
	if rw.Unwrap() != rec {
		t.Error("expected Unwrap to return the recorder")
	}
}
