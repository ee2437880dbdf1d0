package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
	"clfadmin/internal/service"
)

// UserHandler handles admin user management endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateUserRequest carries the fields an admin may change. Absent fields are left untouched.
type UpdateUserRequest struct {
	Name *string `json:"name" validate:"omitempty,max=255"`
	Role *string `json:"role" validate:"omitempty,max=50"`
}

// UserListResponse lists every user.
type UserListResponse struct {
	Status string              `json:"status"`
	Users  []model.UserSummary `json:"users"`
	Count  int                 `json:"count"`
}

// UserResponse wraps an updated user.
type UserResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	User    *model.UserSummary `json:"user"`
}

// DeleteUserResponse wraps a deleted user.
type DeleteUserResponse struct {
	Status      string             `json:"status"`
	Message     string             `json:"message"`
	DeletedUser *model.UserSummary `json:"deleted_user"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}

	users, err := h.svc.ListUsers(c.Request().Context(), caller)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, UserListResponse{
		Status: errors.StatusSuccess,
		Users:  users,
		Count:  len(users),
	})
}

// UpdateUser godoc
// @Summary Update a user's name or role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}
	id, ok := parseID(c.Param("id"))
	if !ok {
		return badRequest("invalid user id")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	user, err := h.svc.UpdateUser(c.Request().Context(), caller, id, service.UserUpdate{Name: req.Name, Role: req.Role})
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, UserResponse{
		Status:  errors.StatusSuccess,
		Message: "User updated successfully",
		User:    user,
	})
}

// DeleteUser godoc
// @Summary Delete a user and their history
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} DeleteUserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}
	id, ok := parseID(c.Param("id"))
	if !ok {
		return badRequest("invalid user id")
	}

	user, err := h.svc.DeleteUser(c.Request().Context(), caller, id)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, DeleteUserResponse{
		Status:      errors.StatusSuccess,
		Message:     "User deleted successfully",
		DeletedUser: user,
	})
}
