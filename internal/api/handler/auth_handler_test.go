package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

type stubAuthService struct {
	loginResult   *ports.AuthResult
	loginErr      error
	refreshResult *ports.AuthResult
	refreshErr    error
	meResult      *ports.AuthResult
	meErr         error
	logoutTokens  []string
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (*ports.AuthResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) Logout(_ context.Context, refreshToken string) error {
	s.logoutTokens = append(s.logoutTokens, refreshToken)
	return nil
}

func (s *stubAuthService) Refresh(_ context.Context, _ string) (*ports.AuthResult, error) {
	return s.refreshResult, s.refreshErr
}

func (s *stubAuthService) Me(_ context.Context, _ int64) (*ports.AuthResult, error) {
	return s.meResult, s.meErr
}

func sampleResult(withRefresh bool) *ports.AuthResult {
	r := &ports.AuthResult{
		User: &domain.User{
			ID:    1,
			Email: "admin@x.com",
			Name:  "Admin",
			Role:  domain.RoleAdmin,
		},
		Permissions: domain.Catalog(),
		AccessToken: "header.payload.signature",
	}
	if withRefresh {
		r.RefreshToken = "refresh-plaintext"
	}
	return r
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := http.Response{Header: rec.Header()}
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginHandler_SetsRefreshCookie(t *testing.T) {
	e := newEcho()
	svc := &stubAuthService{loginResult: sampleResult(true)}
	h := NewAuthHandler(svc, 7*24*time.Hour, false)

	body := `{"email":"admin@x.com","password":"Admin@123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := findCookie(rec, "refresh_token")
	if cookie == nil {
		t.Fatalf("refresh cookie not set")
	}
	if cookie.Value != "refresh-plaintext" {
		t.Fatalf("cookie carries wrong value: %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Fatalf("refresh cookie must be HTTP-only")
	}
	if cookie.Path != "/" {
		t.Fatalf("expected path /, got %q", cookie.Path)
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", cookie.SameSite)
	}
	if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("cookie max-age must match the refresh TTL, got %d", cookie.MaxAge)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.User.Email != "admin@x.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Permissions) != 5 {
		t.Fatalf("expected full catalog, got %v", resp.Permissions)
	}
	if strings.Contains(rec.Body.String(), "refresh-plaintext") {
		t.Fatalf("refresh token must never appear in the response body")
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	e := newEcho()
	svc := &stubAuthService{loginErr: domain.ErrInvalidCredentials}
	h := NewAuthHandler(svc, time.Hour, false)

	body := `{"email":"ghost@x.com","password":"nope"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid email or password") {
		t.Fatalf("expected generic message, got %s", rec.Body.String())
	}
	if findCookie(rec, "refresh_token") != nil {
		t.Fatalf("no cookie on failed login")
	}
}

func TestLoginHandler_ValidationFailure(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false)

	body := `{"email":"not-an-email","password":""}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogoutHandler_AlwaysSucceedsAndClearsCookie(t *testing.T) {
	e := newEcho()
	svc := &stubAuthService{}
	h := NewAuthHandler(svc, time.Hour, false)

	// No cookie presented at all.
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("expected success body, got %s", rec.Body.String())
	}
	cookie := findCookie(rec, "refresh_token")
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("expected expired clearing cookie, got %+v", cookie)
	}
}

func TestLogoutHandler_PassesCookieValueToService(t *testing.T) {
	e := newEcho()
	svc := &stubAuthService{}
	h := NewAuthHandler(svc, time.Hour, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "the-token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(svc.logoutTokens) != 1 || svc.logoutTokens[0] != "the-token" {
		t.Fatalf("service did not receive the cookie value: %v", svc.logoutTokens)
	}
}

func TestRefreshHandler_MissingCookie(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshHandler_Success(t *testing.T) {
	e := newEcho()
	svc := &stubAuthService{refreshResult: sampleResult(false)}
	h := NewAuthHandler(svc, time.Hour, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "the-token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// Refresh does not rotate the token: no new cookie is issued.
	if findCookie(rec, "refresh_token") != nil {
		t.Fatalf("refresh must not set a new cookie")
	}
}

func TestRefreshHandler_Rejected(t *testing.T) {
	e := newEcho()
	svc := &stubAuthService{refreshErr: domain.ErrUnauthorized}
	h := NewAuthHandler(svc, time.Hour, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "revoked"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMeHandler(t *testing.T) {
	e := newEcho()
	svc := &stubAuthService{meResult: sampleResult(false)}
	h := NewAuthHandler(svc, time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", int64(1))

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMeHandler_MissingClaims(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Me(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}
