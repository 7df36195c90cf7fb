package store

import (
	"context"
	"errors"

	"github.com/clipforge/api/internal/model"
)

var (
	// ErrNotFound is returned when an asset, clip or post does not exist
	ErrNotFound = errors.New("not found")

	// ErrBusy is returned when a stage claim loses to a concurrent
	// advance on the same asset
	ErrBusy = errors.New("asset is busy")
)

// Store persists assets, clips and posts. The asset record is the sole
// shared mutable resource of the pipeline; ClaimStage is the
// compare-and-swap that serializes advances per asset.
type Store interface {
	CreateAsset(ctx context.Context, asset *model.ContentAsset) error
	GetAsset(ctx context.Context, id string) (*model.ContentAsset, error)
	SaveAsset(ctx context.Context, asset *model.ContentAsset) error
	ListAssets(ctx context.Context) ([]*model.ContentAsset, error)

	// ClaimStage atomically transitions the asset to
	// {stage: toStage, stageStatus: RUNNING, status: PROCESSING}
	// if and only if its current stage and stage status still equal
	// the expected values. Any concurrent claim or interleaved write
	// fails with ErrBusy; the stage is never double-executed.
	ClaimStage(ctx context.Context, id string, fromStage int, fromStatus model.StageStatus, toStage int) (*model.ContentAsset, error)

	SaveClip(ctx context.Context, clip *model.Clip) error
	ListClips(ctx context.Context, assetID string) ([]*model.Clip, error)

	SavePost(ctx context.Context, post *model.Post) error
	ListPosts(ctx context.Context, clipID string) ([]*model.Post, error)
}
