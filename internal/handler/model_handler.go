package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
	"clfadmin/internal/service"
)

// ModelHandler handles model registry endpoints.
type ModelHandler struct {
	modelService service.ModelService
}

// NewModelHandler creates a new model handler.
func NewModelHandler(modelService service.ModelService) *ModelHandler {
	return &ModelHandler{modelService: modelService}
}

// AddModelRequest registers a model by name.
type AddModelRequest struct {
	ModelName string `json:"model_name" validate:"required"`
}

// ModelListResponse lists the registered models.
type ModelListResponse struct {
	Status string                 `json:"status"`
	Models []model.ModelReference `json:"models"`
	Count  int                    `json:"count"`
}

// ModelChangeResponse reports an added or removed model.
type ModelChangeResponse struct {
	Status      string                `json:"status"`
	Message     string                `json:"message"`
	ModelName   string                `json:"model_name"`
	Model       *model.ModelReference `json:"model,omitempty"`
	TotalModels int                   `json:"total_models"`
}

// ListModels godoc
// @Summary List registered models
// @Tags models
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ModelListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /models [get]
func (h *ModelHandler) ListModels(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}

	models, err := h.modelService.ListModels(c.Request().Context(), caller)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, ModelListResponse{
		Status: errors.StatusSuccess,
		Models: models,
		Count:  len(models),
	})
}

// AddModel godoc
// @Summary Register a model
// @Tags models
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddModelRequest true "Model to register"
// @Success 201 {object} ModelChangeResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /models [post]
func (h *ModelHandler) AddModel(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}

	var req AddModelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("model_name is required")
	}

	ref, total, err := h.modelService.AddModel(c.Request().Context(), caller, req.ModelName)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusCreated, ModelChangeResponse{
		Status:      errors.StatusSuccess,
		Message:     "Model added successfully",
		ModelName:   ref.Name,
		Model:       ref,
		TotalModels: total,
	})
}

// DeleteModel godoc
// @Summary Remove a model
// @Tags models
// @Produce json
// @Security BearerAuth
// @Param name path string true "Model name (URL-encoded)"
// @Success 200 {object} ModelChangeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /models/{name} [delete]
func (h *ModelHandler) DeleteModel(c echo.Context) error {
	caller, err := CallerFromContext(c)
	if err != nil {
		return RespondError(err)
	}

	// Hugging Face names contain a slash and arrive escaped.
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return badRequest("invalid model name")
	}

	total, err := h.modelService.RemoveModel(c.Request().Context(), caller, name)
	if err != nil {
		return RespondError(err)
	}

	return c.JSON(http.StatusOK, ModelChangeResponse{
		Status:      errors.StatusSuccess,
		Message:     "Model deleted successfully",
		ModelName:   name,
		TotalModels: total,
	})
}
