package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/pipeline"
	"github.com/clipforge/api/internal/report"
	"github.com/clipforge/api/internal/store"
	"github.com/clipforge/api/internal/worker"
	"github.com/clipforge/api/pkg/response"
)

type AssetHandler struct {
	cfg        *config.Config
	store      store.Store
	controller *pipeline.Controller
	enqueuer   worker.Enqueuer
	validator  *validator.Validate
}

func NewAssetHandler(cfg *config.Config, st store.Store, ctrl *pipeline.Controller, enq worker.Enqueuer, v *validator.Validate) *AssetHandler {
	return &AssetHandler{
		cfg:        cfg,
		store:      st,
		controller: ctrl,
		enqueuer:   enq,
		validator:  v,
	}
}

// IngestYouTube handles POST /api/assets/youtube
// @Summary      Ingest a YouTube video
// @Description  Register a YouTube URL as a new content asset and queue its pipeline
// @Tags         Assets
// @Accept       json
// @Produce      json
// @Param        request body model.IngestYouTubeRequest true "Ingest request"
// @Success      201 {object} model.IngestResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/assets/youtube [post]
func (h *AssetHandler) IngestYouTube(c *fiber.Ctx) error {
	var req model.IngestYouTubeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	title := req.Title
	if title == "" {
		title = "Untitled"
	}

	now := time.Now().UTC()
	asset := &model.ContentAsset{
		ID:          uuid.New().String(),
		Title:       title,
		SourceURL:   req.URL,
		SourceType:  model.PlatformYouTube,
		Status:      model.ContentStatusPending,
		Stage:       0,
		StageStatus: model.StageStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateAsset(c.Context(), asset); err != nil {
		return response.ServiceError(c, err.Error())
	}

	message := "Asset created, awaiting manual advance"
	if h.cfg.Pipeline.AutoAdvance {
		if err := h.enqueuer.EnqueueAdvance(asset.ID, 0); err != nil {
			return response.ServiceError(c, err.Error())
		}
		message = "Asset queued for processing"
	}

	return response.Created(c, model.IngestResponse{
		ID:      asset.ID,
		Title:   asset.Title,
		Status:  asset.Status,
		Message: message,
	})
}

// List handles GET /api/assets
// @Summary      List assets
// @Description  List all assets newest first, reaping stale pipelines on the way
// @Tags         Assets
// @Produce      json
// @Success      200 {array} model.AssetResponse
// @Security     BearerAuth
// @Router       /api/assets [get]
func (h *AssetHandler) List(c *fiber.Ctx) error {
	// Listing doubles as the zombie sweep so stuck pipelines surface
	// as FAILED instead of hanging in PROCESSING forever.
	if _, err := h.controller.ReapZombies(c.Context()); err != nil {
		return response.ServiceError(c, err.Error())
	}

	assets, err := h.store.ListAssets(c.Context())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	out := make([]model.AssetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetView(a, nil))
	}
	return response.OK(c, out)
}

// Get handles GET /api/assets/:assetId
// @Summary      Get asset
// @Description  Get one asset with its clips
// @Tags         Assets
// @Produce      json
// @Param        assetId path string true "Asset ID"
// @Success      200 {object} model.AssetResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/assets/{assetId} [get]
func (h *AssetHandler) Get(c *fiber.Ctx) error {
	assetID := c.Params("assetId")
	if assetID == "" {
		return response.ValidationError(c, "Asset ID is required", nil)
	}

	asset, err := h.store.GetAsset(c.Context(), assetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.ServiceError(c, err.Error())
	}

	clips, err := h.store.ListClips(c.Context(), assetID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, assetView(asset, clips))
}

// Report handles GET /api/assets/:assetId/report
// @Summary      Download asset report
// @Description  Download an xlsx report of the asset's clips and posts
// @Tags         Assets
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        assetId path string true "Asset ID"
// @Success      200 {file} binary
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/assets/{assetId}/report [get]
func (h *AssetHandler) Report(c *fiber.Ctx) error {
	assetID := c.Params("assetId")
	if assetID == "" {
		return response.ValidationError(c, "Asset ID is required", nil)
	}

	asset, err := h.store.GetAsset(c.Context(), assetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.ServiceError(c, err.Error())
	}

	clips, err := h.store.ListClips(c.Context(), assetID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	postsByClip := make(map[string][]*model.Post, len(clips))
	for _, clip := range clips {
		posts, err := h.store.ListPosts(c.Context(), clip.ID)
		if err != nil {
			return response.ServiceError(c, err.Error())
		}
		postsByClip[clip.ID] = posts
	}

	buf, err := report.BuildClipReport(asset, clips, postsByClip)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="asset-%s-report.xlsx"`, assetID))
	return c.Send(buf.Bytes())
}

func assetView(a *model.ContentAsset, clips []*model.Clip) model.AssetResponse {
	view := model.AssetResponse{
		ID:           a.ID,
		Title:        a.Title,
		SourceURL:    a.SourceURL,
		Status:       a.Status,
		Stage:        a.Stage,
		StageStatus:  a.StageStatus,
		ErrorMessage: a.ErrorMessage,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	for _, clip := range clips {
		view.Clips = append(view.Clips, *clip)
	}
	return view
}
