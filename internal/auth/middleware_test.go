package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, userID, role string, expires time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newWrapped(t *testing.T) http.Handler {
	t.Helper()
	policy := NewDefaultPolicy([]string{"/healthz", "/metrics"})
	middleware := NewMiddleware(testSecret, policy)
	return middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddlewareExemptPath(t *testing.T) {
	handler := newWrapped(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on exempt path, got %d", rec.Code)
	}
}

func TestMiddlewareMissingToken(t *testing.T) {
	handler := newWrapped(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/fields/f1/alerts", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestMiddlewareRoleEnforcement(t *testing.T) {
	handler := newWrapped(t)

	farmer := signToken(t, "user-1", "farmer", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/evaluate-alerts", nil)
	req.Header.Set("Authorization", "Bearer "+farmer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for farmer on jobs endpoint, got %d", rec.Code)
	}

	operator := signToken(t, "user-2", "operator", time.Now().Add(time.Hour))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/jobs/evaluate-alerts", nil)
	req.Header.Set("Authorization", "Bearer "+operator)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for operator on jobs endpoint, got %d", rec.Code)
	}
}

func TestMiddlewareExpiredToken(t *testing.T) {
	handler := newWrapped(t)
	expired := signToken(t, "user-1", "admin", time.Now().Add(-time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestParseJWTRejectsUnknownRole(t *testing.T) {
	token := signToken(t, "user-1", "superuser", time.Now().Add(time.Hour))
	if _, err := ParseJWT(token, testSecret); err == nil {
		t.Fatalf("expected unknown role rejection")
	}
}
