package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gravity-platform/gravity-common/httpx"
	"github.com/gravity-platform/gravity-common/security/token"
)

func newAuthService(t *testing.T) *token.Service {
	t.Helper()
	kr, err := token.NewKeyring(token.SigningKey{KID: "k-1", Secret: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	return token.NewService("https://auth.gravity.local", kr)
}

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpx.ClaimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		httpx.OK(w, http.StatusOK, map[string]string{"subject": claims.Subject}, "")
	})
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code
}

func TestRequireAuthAcceptsValidAccessToken(t *testing.T) {
	svc := newAuthService(t)
	handler := httpx.RequireAuth(svc)(protectedHandler(t))

	signed, err := svc.Mint("user-9", token.TypeAccess, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Data["subject"] != "user-9" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	handler := httpx.RequireAuth(newAuthService(t))(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequireAuthExpiredTokenCode(t *testing.T) {
	svc := newAuthService(t)
	handler := httpx.RequireAuth(svc)(protectedHandler(t))

	signed, err := svc.MintWithTTL("u1", token.TypeAccess, nil, 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	// El cliente distingue expirado (→ refresh) de inválido (→ logout).
	if code := errCode(t, rec); code != "token_expired" {
		t.Errorf("code = %q, want token_expired", code)
	}
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	svc := newAuthService(t)
	handler := httpx.RequireAuth(svc)(protectedHandler(t))

	signed, err := svc.Mint("u1", token.TypeRefresh, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errCode(t, rec); code != "wrong_token_type" {
		t.Errorf("code = %q, want wrong_token_type", code)
	}
}

func TestRequireAuthTamperedTokenCode(t *testing.T) {
	svc := newAuthService(t)
	handler := httpx.RequireAuth(svc)(protectedHandler(t))

	signed, err := svc.Mint("u1", token.TypeAccess, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed+"tampered")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if code := errCode(t, rec); code != "invalid_token" {
		t.Errorf("code = %q, want invalid_token", code)
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	handler := httpx.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Fatal("request id not set in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("header %q != context %q", got, seen)
	}

	// Un request id entrante se respeta.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-inbound")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "rid-inbound" {
		t.Errorf("inbound request id not preserved: %q", seen)
	}
}

func TestHealthzRouter(t *testing.T) {
	router := httpx.NewRouter(httpx.RouterOptions{Service: "accounts-svc", Version: "1.0.0"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Data struct {
			Status  string `json:"status"`
			Service string `json:"service"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Status != "ok" || env.Data.Service != "accounts-svc" {
		t.Errorf("health = %+v", env.Data)
	}
}
