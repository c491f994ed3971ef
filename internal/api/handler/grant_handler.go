package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/ports"
)

// GrantHandler exposes the admin surface for employee permission grants.
// Routes using it must sit behind the Auth middleware plus an admin role
// guard; grant changes take effect on the target user's next login or
// refresh, outstanding access tokens are not recalled.
type GrantHandler struct {
	users  ports.UserRepository
	grants ports.PermissionRepository
}

func NewGrantHandler(users ports.UserRepository, grants ports.PermissionRepository) *GrantHandler {
	return &GrantHandler{users: users, grants: grants}
}

// List returns the permission codes explicitly granted to a user.
//
// @Summary      List a user's permission grants
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      int  true  "User ID"
// @Success      200 {object}  grantsResponse
// @Failure      404 {object}  errorResponse
// @Router       /admin/users/{id}/permissions [get]
func (h *GrantHandler) List(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}
	if _, err := h.users.FindByID(c.Request().Context(), userID); err != nil {
		return err
	}

	codes, err := h.grants.GrantedCodes(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if codes == nil {
		codes = []string{}
	}
	return c.JSON(http.StatusOK, grantsResponse{UserID: userID, Permissions: codes})
}

// Replace swaps a user's grant set after validating its internal consistency.
//
// @Summary      Replace a user's permission grants
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "User ID"
// @Param        body  body      replaceGrantsRequest  true  "New grant set"
// @Success      200   {object}  grantsResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/users/{id}/permissions [put]
func (h *GrantHandler) Replace(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	var req replaceGrantsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	user, err := h.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		// Admin permissions come from the catalog, never from grant rows.
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "admin permissions are not grant-managed"})
	}

	if err := h.grants.ReplaceGrants(c.Request().Context(), userID, req.Permissions); err != nil {
		return err
	}

	codes, err := h.grants.GrantedCodes(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if codes == nil {
		codes = []string{}
	}
	return c.JSON(http.StatusOK, grantsResponse{UserID: userID, Permissions: codes})
}

func pathUserID(c echo.Context) (int64, error) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return userID, nil
}
