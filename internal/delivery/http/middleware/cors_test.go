package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS([]string{"https://admin.example/"}, []string{http.MethodGet, http.MethodPost}, next)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "http://test/users", nil)
		req.Header.Set("Origin", "https://admin.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "https://admin.example", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("request from other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://test/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("request from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://test/health", nil)
		req.Header.Set("Origin", "https://admin.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, "https://admin.example", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}
