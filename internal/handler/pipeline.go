package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/pipeline"
	"github.com/clipforge/api/internal/store"
	"github.com/clipforge/api/pkg/response"
)

type PipelineHandler struct {
	controller *pipeline.Controller
}

func NewPipelineHandler(ctrl *pipeline.Controller) *PipelineHandler {
	return &PipelineHandler{controller: ctrl}
}

// Status handles GET /api/pipeline/:assetId/status
// @Summary      Get pipeline status
// @Description  Get the five-stage status projection for an asset
// @Tags         Pipeline
// @Produce      json
// @Param        assetId path string true "Asset ID"
// @Success      200 {object} model.PipelineStatusResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/{assetId}/status [get]
func (h *PipelineHandler) Status(c *fiber.Ctx) error {
	assetID := c.Params("assetId")
	if assetID == "" {
		return response.ValidationError(c, "Asset ID is required", nil)
	}

	status, err := h.controller.Status(c.Context(), assetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, status)
}

// Advance handles POST /api/pipeline/:assetId/advance
// @Summary      Advance the pipeline
// @Description  Run the next due stage for an asset. Returns 409 while another advance holds the stage.
// @Tags         Pipeline
// @Produce      json
// @Param        assetId path string true "Asset ID"
// @Success      200 {object} model.AdvanceResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipeline/{assetId}/advance [post]
func (h *PipelineHandler) Advance(c *fiber.Ctx) error {
	assetID := c.Params("assetId")
	if assetID == "" {
		return response.ValidationError(c, "Asset ID is required", nil)
	}

	result, err := h.controller.Advance(c.Context(), assetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		if errors.Is(err, store.ErrBusy) {
			return response.Busy(c, "A stage is already running for this asset")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, result)
}
