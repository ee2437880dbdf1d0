package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
	"clfadmin/internal/service"
)

// HistoryHandler handles classification history endpoints.
type HistoryHandler struct {
	historyService service.HistoryService
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// HistoryListResponse is one page of the caller's history.
type HistoryListResponse struct {
	Status string `json:"status"`
	service.HistoryPage
}

// HistoryItemResponse wraps a single history row.
type HistoryItemResponse struct {
	Status  string                       `json:"status"`
	History *model.ClassificationHistory `json:"history"`
}

// UpdatePredictionsRequest replaces the stored predictions.
type UpdatePredictionsRequest struct {
	Predictions json.RawMessage `json:"predictions" swaggertype:"object"`
}

// UpdatePredictionsResponse reports an updated history row.
type UpdatePredictionsResponse struct {
	Status             string `json:"status"`
	Message            string `json:"message"`
	HistoryID          uint   `json:"history_id"`
	UpdatedPredictions int    `json:"updated_predictions"`
}

// DeleteHistoryResponse reports a deleted history row.
type DeleteHistoryResponse struct {
	Status      string                `json:"status"`
	Message     string                `json:"message"`
	DeletedItem *model.HistorySummary `json:"deleted_item"`
}

// ClearHistoryResponse reports how many rows were removed.
type ClearHistoryResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
	UserID       string `json:"user_id"`
}

// ListHistory godoc
// @Summary List the caller's classification history
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(10)
// @Param model_name query string false "Filter by model name"
// @Param model_type query string false "Filter by model type"
// @Param status query string false "Filter by status"
// @Success 200 {object} HistoryListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /history [get]
func (h *HistoryHandler) ListHistory(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}

	filter := service.HistoryFilter{
		ModelName: c.QueryParam("model_name"),
		ModelType: c.QueryParam("model_type"),
		Status:    c.QueryParam("status"),
	}
	page, err := h.historyService.List(c.Request().Context(), caller, filter, queryInt(c, "page"), queryInt(c, "per_page"))
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, HistoryListResponse{Status: errors.StatusSuccess, HistoryPage: *page})
}

// GetHistory godoc
// @Summary Get one history item
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param id path int true "History ID"
// @Success 200 {object} HistoryItemResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /history/{id} [get]
func (h *HistoryHandler) GetHistory(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}
	id, ok := parseID(c.Param("id"))
	if !ok {
		return RespondError(errors.NotFound("history item not found"))
	}

	item, err := h.historyService.Get(c.Request().Context(), caller, id)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, HistoryItemResponse{Status: errors.StatusSuccess, History: item})
}

// UpdatePredictions godoc
// @Summary Replace the predictions of a history item
// @Tags history
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "History ID"
// @Param request body UpdatePredictionsRequest true "New predictions"
// @Success 200 {object} UpdatePredictionsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /history/{id}/update [put]
func (h *HistoryHandler) UpdatePredictions(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}
	id, ok := parseID(c.Param("id"))
	if !ok {
		return RespondError(errors.NotFound("history item not found"))
	}

	var req UpdatePredictionsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	_, count, err := h.historyService.UpdatePredictions(c.Request().Context(), caller, id, req.Predictions)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, UpdatePredictionsResponse{
		Status:             errors.StatusSuccess,
		Message:            "Predictions updated successfully",
		HistoryID:          id,
		UpdatedPredictions: count,
	})
}

// DeleteHistory godoc
// @Summary Delete one history item
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param id path int true "History ID"
// @Success 200 {object} DeleteHistoryResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /history/{id} [delete]
func (h *HistoryHandler) DeleteHistory(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}
	id, ok := parseID(c.Param("id"))
	if !ok {
		return RespondError(errors.NotFound("history item not found"))
	}

	summary, err := h.historyService.Delete(c.Request().Context(), caller, id)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, DeleteHistoryResponse{
		Status:      errors.StatusSuccess,
		Message:     "History item deleted successfully",
		DeletedItem: summary,
	})
}

// ClearHistory godoc
// @Summary Delete all of the caller's history
// @Tags history
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ClearHistoryResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /history/clear [delete]
func (h *HistoryHandler) ClearHistory(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}

	deleted, err := h.historyService.Clear(c.Request().Context(), caller)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, ClearHistoryResponse{
		Status:       errors.StatusSuccess,
		Message:      fmt.Sprintf("Successfully deleted %d history items", deleted),
		DeletedCount: deleted,
		UserID:       caller.Summary().ID,
	})
}
