package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"LinkChat/tools/security"

	"github.com/gin-gonic/gin"
)

func newAuthRouter(t *testing.T, opts security.Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Auth(opts), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r := newAuthRouter(t, security.DefaultOptions([]byte("test-secret")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthAcceptsCookie(t *testing.T) {
	opts := security.DefaultOptions([]byte("test-secret"))
	r := newAuthRouter(t, opts)

	token, _, err := security.Generate(opts, "user-42")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "user-42" {
		t.Fatalf("user id = %q, want user-42", w.Body.String())
	}
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	opts := security.DefaultOptions([]byte("test-secret"))
	r := newAuthRouter(t, opts)

	token, _, err := security.Generate(opts, "user-42")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthRejectsTamperedToken(t *testing.T) {
	opts := security.DefaultOptions([]byte("test-secret"))
	r := newAuthRouter(t, opts)

	token, _, err := security.Generate(security.DefaultOptions([]byte("other-secret")), "user-42")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
