package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

type stubUserFinder struct {
	users map[int64]*domain.User
}

func (s *stubUserFinder) FindByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUserFinder) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type stubGrantStore struct {
	grants map[int64][]string
}

func (s *stubGrantStore) GrantedCodes(_ context.Context, userID int64) ([]string, error) {
	return s.grants[userID], nil
}

func (s *stubGrantStore) ReplaceGrants(_ context.Context, userID int64, codes []string) error {
	if err := domain.ValidateGrantSet(codes); err != nil {
		return err
	}
	s.grants[userID] = codes
	return nil
}

func grantFixture() (*GrantHandler, *stubGrantStore) {
	users := &stubUserFinder{users: map[int64]*domain.User{
		1: {ID: 1, Email: "admin@x.com", Role: domain.RoleAdmin, IsActive: true},
		2: {ID: 2, Email: "emp@x.com", Role: domain.RoleEmployee, IsActive: true},
	}}
	store := &stubGrantStore{grants: map[int64][]string{
		2: {domain.PermView},
	}}
	return NewGrantHandler(users, store), store
}

func TestGrantHandler_List(t *testing.T) {
	h, _ := grantFixture()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("2")

	if err := h.List(c); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp grantsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.UserID != 2 || len(resp.Permissions) != 1 || resp.Permissions[0] != domain.PermView {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGrantHandler_ListUnknownUser(t *testing.T) {
	h, _ := grantFixture()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")

	err := h.List(c)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("List() error = %v, want user-not-found", err)
	}
}

func TestGrantHandler_Replace(t *testing.T) {
	h, store := grantFixture()
	e := echo.New()

	body := `{"permissions":["EDIT","BULK","VIEW"]}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("2")

	if err := h.Replace(c); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := store.grants[2]; len(got) != 3 {
		t.Fatalf("stored grants = %v, want 3 codes", got)
	}
}

func TestGrantHandler_ReplaceInvalidSet(t *testing.T) {
	h, store := grantFixture()
	e := echo.New()

	// BULK without EDIT or DELETE must be rejected and leave grants intact.
	body := `{"permissions":["VIEW","BULK"]}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("2")

	err := h.Replace(c)
	if err == nil {
		t.Fatalf("Replace() accepted an inconsistent grant set")
	}
	if got := store.grants[2]; len(got) != 1 || got[0] != domain.PermView {
		t.Fatalf("grants mutated on rejected replace: %v", got)
	}
}

func TestGrantHandler_ReplaceAdminRejected(t *testing.T) {
	h, _ := grantFixture()
	e := echo.New()

	body := `{"permissions":["VIEW"]}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.Replace(c); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestGrantHandler_InvalidID(t *testing.T) {
	h, _ := grantFixture()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.List(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("List() error = %v, want 400 HTTPError", err)
	}
}
