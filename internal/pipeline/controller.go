package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/logger"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/store"
)

// Notifier receives progress events for connected watchers. All
// methods must be non-blocking.
type Notifier interface {
	StageUpdate(assetID string, stage int, status model.StageStatus, message string)
	PipelineComplete(assetID string)
	PipelineFailed(assetID string, message string)
}

// Controller owns pipeline advancement. One Advance call runs at most
// one stage; the per-asset claim in the store guarantees that two
// concurrent advances cannot both run.
type Controller struct {
	cfg      *config.Config
	log      *logger.Logger
	store    store.Store
	stages   *Stages
	notifier Notifier
}

// NewController creates a pipeline controller. notifier may be nil.
func NewController(cfg *config.Config, log *logger.Logger, st store.Store, stages *Stages, notifier Notifier) *Controller {
	return &Controller{
		cfg:      cfg,
		log:      log,
		store:    st,
		stages:   stages,
		notifier: notifier,
	}
}

// Advance runs the next due stage for the asset. Completed pipelines
// are a no-op; a concurrently running advance surfaces as
// store.ErrBusy.
func (c *Controller) Advance(ctx context.Context, assetID string) (*model.AdvanceResponse, error) {
	asset, err := c.store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if isTerminal(asset) {
		return &model.AdvanceResponse{
			AssetID:         asset.ID,
			StageAdvancedTo: asset.Stage,
			StageName:       model.StageName(asset.Stage),
			Status:          asset.StageStatus,
			Message:         "Pipeline already complete",
		}, nil
	}

	if asset.StageStatus == model.StageStatusRunning {
		if time.Since(asset.UpdatedAt) > c.cfg.Pipeline.StaleAfter {
			if err := c.reapOne(ctx, asset); err != nil {
				return nil, err
			}
			// The reaped stage is now FAILED and retryable on the
			// next advance.
		}
		return nil, store.ErrBusy
	}

	next := nextStage(asset)
	if next > model.StageCount {
		asset.Status = model.ContentStatusReady
		asset.UpdatedAt = time.Now().UTC()
		if err := c.store.SaveAsset(ctx, asset); err != nil {
			return nil, err
		}
		return &model.AdvanceResponse{
			AssetID:         asset.ID,
			StageAdvancedTo: asset.Stage,
			StageName:       model.StageName(asset.Stage),
			Status:          asset.StageStatus,
			Message:         "Pipeline already complete",
		}, nil
	}

	claimed, err := c.store.ClaimStage(ctx, asset.ID, asset.Stage, asset.StageStatus, next)
	if err != nil {
		return nil, err
	}
	asset = claimed
	c.notify(asset.ID, next, model.StageStatusRunning, "Stage started")

	log := c.log.WithAsset(asset.ID).WithField("stage", next)
	log.WithField("stage_name", model.StageName(next)).Info("running pipeline stage")

	outcome, runErr := c.stages.Run(ctx, next, asset)
	now := time.Now().UTC()

	if runErr != nil {
		return c.persistFailure(ctx, asset, next, runErr, now)
	}

	rec := outcome.Record(now)
	asset.SetStageRecord(next, rec)
	asset.StageStatus = outcome.Status
	asset.ErrorMessage = ""
	asset.UpdatedAt = now

	finished := next == model.StageCount &&
		(outcome.Status == model.StageStatusCompleted || outcome.Status == model.StageStatusSkipped)
	if finished {
		asset.Status = model.ContentStatusReady
	} else {
		asset.Status = model.ContentStatusProcessing
	}

	if err := c.store.SaveAsset(ctx, asset); err != nil {
		return nil, err
	}

	c.notify(asset.ID, next, outcome.Status, outcome.Message)
	if finished && c.notifier != nil {
		c.notifier.PipelineComplete(asset.ID)
	}
	log.WithField("status", outcome.Status).Info("pipeline stage finished")

	return &model.AdvanceResponse{
		AssetID:         asset.ID,
		StageAdvancedTo: next,
		StageName:       model.StageName(next),
		Status:          outcome.Status,
		Message:         outcome.Message,
	}, nil
}

func (c *Controller) persistFailure(ctx context.Context, asset *model.ContentAsset, stage int, runErr error, now time.Time) (*model.AdvanceResponse, error) {
	asset.SetStageRecord(stage, model.StageRecord{
		Status:    model.StageStatusFailed,
		Timestamp: now,
		Error:     runErr.Error(),
	})
	asset.StageStatus = model.StageStatusFailed
	asset.Status = model.ContentStatusFailed
	asset.ErrorMessage = runErr.Error()
	asset.UpdatedAt = now

	if err := c.store.SaveAsset(ctx, asset); err != nil {
		return nil, err
	}

	// Every stage exception fails the asset; the kind only decides
	// whether watchers get the pipeline-failed event. The stage stays
	// retryable either way.
	c.notify(asset.ID, stage, model.StageStatusFailed, runErr.Error())
	if KindOf(runErr) == KindFatal && c.notifier != nil {
		c.notifier.PipelineFailed(asset.ID, runErr.Error())
	}
	c.log.WithAsset(asset.ID).WithField("stage", stage).WithError(runErr).Error("pipeline stage failed")

	return &model.AdvanceResponse{
		AssetID:         asset.ID,
		StageAdvancedTo: stage,
		StageName:       model.StageName(stage),
		Status:          model.StageStatusFailed,
		Message:         runErr.Error(),
	}, nil
}

// Status projects the asset into the five-stage status view. A stale
// RUNNING asset is reaped on the way, so a status read is enough to
// surface a zombie as FAILED.
func (c *Controller) Status(ctx context.Context, assetID string) (*model.PipelineStatusResponse, error) {
	asset, err := c.store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if asset.StageStatus == model.StageStatusRunning &&
		time.Since(asset.UpdatedAt) > c.cfg.Pipeline.StaleAfter {
		if err := c.reapOne(ctx, asset); err != nil {
			return nil, err
		}
	}

	resp := &model.PipelineStatusResponse{
		AssetID:          asset.ID,
		Title:            asset.Title,
		OverallStatus:    asset.Status,
		CurrentStage:     asset.Stage,
		CurrentStageName: model.StageName(asset.Stage),
		ErrorMessage:     asset.ErrorMessage,
		Stages:           make([]model.StageDetail, 0, model.StageCount),
	}
	for stage := 1; stage <= model.StageCount; stage++ {
		rec := asset.StageRecordAt(stage)
		detail := model.StageDetail{
			StageNumber: stage,
			StageName:   model.StageName(stage),
			Status:      rec.Status,
		}
		if detail.Status == "" {
			detail.Status = model.StageStatusPending
		}
		// The claimed stage shows RUNNING, not the previous attempt's
		// recorded status.
		if stage == asset.Stage && asset.StageStatus == model.StageStatusRunning {
			detail.Status = model.StageStatusRunning
		}
		detail.ResultSummary = rec.Message
		detail.ErrorMessage = rec.Error
		resp.Stages = append(resp.Stages, detail)
	}
	return resp, nil
}

// ReapZombies fails every asset whose claimed stage went silent for
// longer than the staleness window. Returns the number of assets
// reaped.
func (c *Controller) ReapZombies(ctx context.Context) (int, error) {
	assets, err := c.store.ListAssets(ctx)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, asset := range assets {
		if asset.StageStatus != model.StageStatusRunning {
			continue
		}
		if time.Since(asset.UpdatedAt) <= c.cfg.Pipeline.StaleAfter {
			continue
		}
		if err := c.reapOne(ctx, asset); err != nil {
			return reaped, err
		}
		reaped++
	}
	return reaped, nil
}

func (c *Controller) reapOne(ctx context.Context, asset *model.ContentAsset) error {
	now := time.Now().UTC()
	msg := "Timeout: Process took too long"

	asset.SetStageRecord(asset.Stage, model.StageRecord{
		Status:    model.StageStatusFailed,
		Timestamp: now,
		Error:     msg,
	})
	asset.StageStatus = model.StageStatusFailed
	asset.Status = model.ContentStatusFailed
	asset.ErrorMessage = msg
	asset.UpdatedAt = now

	if err := c.store.SaveAsset(ctx, asset); err != nil {
		return fmt.Errorf("failed to reap asset %s: %w", asset.ID, err)
	}

	c.log.WithAsset(asset.ID).WithField("stage", asset.Stage).Warn("reaped zombie pipeline")
	if c.notifier != nil {
		c.notifier.PipelineFailed(asset.ID, msg)
	}
	return nil
}

func (c *Controller) notify(assetID string, stage int, status model.StageStatus, message string) {
	if c.notifier == nil {
		return
	}
	c.notifier.StageUpdate(assetID, stage, status, message)
}

// isTerminal reports whether the pipeline has nothing left to run
func isTerminal(a *model.ContentAsset) bool {
	if a.Status == model.ContentStatusReady {
		return true
	}
	return a.Stage >= model.StageCount &&
		(a.StageStatus == model.StageStatusCompleted || a.StageStatus == model.StageStatusSkipped)
}

// nextStage picks the stage one advance should run. Completed and
// skipped stages move forward; POLLING and FAILED stages re-run in
// place; an untouched asset starts at stage 1.
func nextStage(a *model.ContentAsset) int {
	switch a.StageStatus {
	case model.StageStatusCompleted, model.StageStatusSkipped:
		return a.Stage + 1
	case model.StageStatusPolling, model.StageStatusFailed:
		return a.Stage
	default:
		if a.Stage < 1 {
			return 1
		}
		return a.Stage
	}
}
