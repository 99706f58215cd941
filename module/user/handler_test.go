package user

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newAuthRouter(t *testing.T, h *Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	noop := func(c *gin.Context) { c.Next() }
	h.RegisterRoutes(r.Group("/api/auth"), noop)
	return r
}

func TestGoogleLoginWithoutConfig(t *testing.T) {
	r := newAuthRouter(t, NewHandler(nil, nil, "http://localhost:5173"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google/login",
		strings.NewReader(`{"token":"ya29.something"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code == http.StatusNotFound {
		t.Fatal("POST /api/auth/google/login is not mounted")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d for unconfigured google sign-in", w.Code, http.StatusBadRequest)
	}
}

func TestGoogleRedirectWithoutConfig(t *testing.T) {
	r := newAuthRouter(t, NewHandler(nil, nil, "http://localhost:5173"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d for unconfigured google sign-in", w.Code, http.StatusBadRequest)
	}
}
