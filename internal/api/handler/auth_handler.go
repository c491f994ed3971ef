package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

const refreshCookieName = "refresh_token"

// AuthHandler owns the transport side of the token lifecycle: it moves the
// refresh-token plaintext between the service layer and the HTTP-only cookie.
// The auth service itself never sees a cookie.
type AuthHandler struct {
	authService  ports.AuthService
	refreshTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(authService ports.AuthService, refreshTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		refreshTTL:   refreshTTL,
		secureCookie: secureCookie,
	}
}

// Login authenticates a user and returns an access token; the refresh token
// is set as an HTTP-only cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken)
	return c.JSON(http.StatusOK, toAuthResponse(result))
}

// Logout revokes the caller's sessions and clears the refresh cookie. It
// always reports success, even when no valid cookie was presented.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  logoutResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var plaintext string
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		plaintext = cookie.Value
	}

	_ = h.authService.Logout(c.Request().Context(), plaintext)

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, logoutResponse{Success: true})
}

// Refresh mints a new access token from the refresh cookie. No body input.
//
// @Summary      Refresh the access token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	}

	result, err := h.authService.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return mapAuthError(c, err)
	}

	return c.JSON(http.StatusOK, toAuthResponse(result))
}

// Me returns current identity and permission data with a freshly minted
// access token. Requires a valid bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	result, err := h.authService.Me(c.Request().Context(), userID)
	if err != nil {
		return mapAuthError(c, err)
	}

	return c.JSON(http.StatusOK, toAuthResponse(result))
}

// mapAuthError collapses every authentication failure to a 401 with a
// non-enumerating message. Unknown errors fall through to the central error
// handler.
func mapAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountSuspended),
		errors.Is(err, domain.ErrTooManyAttempts):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: domain.ErrInvalidCredentials.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	}
	return err
}

func toAuthResponse(r *ports.AuthResult) authResponse {
	return authResponse{
		User: userResponse{
			ID:    r.User.ID,
			Email: r.User.Email,
			Name:  r.User.Name,
			Role:  r.User.Role,
		},
		Permissions: r.Permissions,
		AccessToken: r.AccessToken,
	}
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, plaintext string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plaintext,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
