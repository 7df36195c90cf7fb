package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/logger"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/pipeline"
	"github.com/clipforge/api/internal/store"
)

// TaskTypeAdvance is the asynq task type for one pipeline advance
const TaskTypeAdvance = "pipeline:advance"

// QueuePipeline is the asynq queue pipeline advances run on
const QueuePipeline = "pipeline"

// AdvancePayload is the task payload for TaskTypeAdvance
type AdvancePayload struct {
	AssetID string `json:"assetId"`
}

// Enqueuer schedules pipeline advance tasks. delay of zero enqueues
// for immediate processing.
type Enqueuer interface {
	EnqueueAdvance(assetID string, delay time.Duration) error
}

// AsynqEnqueuer enqueues advance tasks onto the pipeline queue
type AsynqEnqueuer struct {
	client *asynq.Client
}

// NewAsynqEnqueuer creates a new enqueuer
func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client}
}

func (e *AsynqEnqueuer) EnqueueAdvance(assetID string, delay time.Duration) error {
	data, err := json.Marshal(AdvancePayload{AssetID: assetID})
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.Queue(QueuePipeline),
		asynq.MaxRetry(3),
		asynq.Retention(24 * time.Hour),
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}

	_, err = e.client.Enqueue(asynq.NewTask(TaskTypeAdvance, data), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue advance task: %w", err)
	}
	return nil
}

// NoopEnqueuer drops every task. Used when background advancement is
// disabled and every stage runs through the HTTP advance endpoint.
type NoopEnqueuer struct{}

func (NoopEnqueuer) EnqueueAdvance(string, time.Duration) error { return nil }

// AdvanceWorker processes pipeline advance tasks. Each task runs one
// stage and decides what, if anything, to schedule next: POLLING
// stages re-enqueue after the poll delay, completed stages chain to
// the next one when auto-advance is on, failures stop the chain.
type AdvanceWorker struct {
	cfg      *config.Config
	log      *logger.Logger
	ctrl     *pipeline.Controller
	enqueuer Enqueuer
}

// NewAdvanceWorker creates a new advance worker
func NewAdvanceWorker(cfg *config.Config, log *logger.Logger, ctrl *pipeline.Controller, enqueuer Enqueuer) *AdvanceWorker {
	return &AdvanceWorker{
		cfg:      cfg,
		log:      log,
		ctrl:     ctrl,
		enqueuer: enqueuer,
	}
}

// ProcessTask handles one advance task
func (w *AdvanceWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload AdvancePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log := w.log.WithAsset(payload.AssetID)

	resp, err := w.ctrl.Advance(ctx, payload.AssetID)
	if err != nil {
		// Another advance holds the claim; its own completion will
		// schedule the rest of the pipeline.
		if errors.Is(err, store.ErrBusy) {
			log.Debug("advance task skipped, stage already running")
			return nil
		}
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("advance task dropped, asset no longer exists")
			return nil
		}
		return err
	}

	switch resp.Status {
	case model.StageStatusPolling:
		log.WithField("stage", resp.StageAdvancedTo).Debug("stage polling, re-enqueueing")
		return w.enqueuer.EnqueueAdvance(payload.AssetID, w.cfg.Pipeline.PollDelay)
	case model.StageStatusCompleted, model.StageStatusSkipped:
		if resp.StageAdvancedTo < model.StageCount && w.cfg.Pipeline.AutoAdvance {
			return w.enqueuer.EnqueueAdvance(payload.AssetID, 0)
		}
	case model.StageStatusFailed:
		log.WithField("stage", resp.StageAdvancedTo).Warn("stage failed, stopping auto-advance")
	}
	return nil
}
