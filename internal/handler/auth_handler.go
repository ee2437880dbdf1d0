package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"clfadmin/internal/auth"
	"clfadmin/internal/errors"
	"clfadmin/internal/model"
)

// AuthHandler handles session endpoints for an already authenticated caller.
type AuthHandler struct {
	tokenStore auth.TokenStoreInterface
	log        *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenStore auth.TokenStoreInterface, log *zap.Logger) *AuthHandler {
	return &AuthHandler{tokenStore: tokenStore, log: log}
}

// MeResponse describes the resolved caller.
type MeResponse struct {
	Status string             `json:"status"`
	User   *model.UserSummary `json:"user"`
}

// Me godoc
// @Summary Get the authenticated caller
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}

	summary := caller.Summary()
	return c.JSON(http.StatusOK, MeResponse{Status: errors.StatusSuccess, User: &summary})
}

// Logout godoc
// @Summary Revoke the presented access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}
	claims, err := auth.TokenFromContext(c)
	if err != nil || claims.ID == "" {
		return RespondError(errors.Unauthorized("invalid token"))
	}

	if err := h.tokenStore.RevokeAccessToken(c.Request().Context(), claims.ID, claims.RemainingTTL(time.Now())); err != nil {
		return RespondError(err)
	}

	h.log.Info("access token revoked", zap.Uint("user_id", caller.ID), zap.String("jti", claims.ID))
	return c.JSON(http.StatusOK, SuccessResponse{Status: errors.StatusSuccess, Message: "logged out successfully"})
}
