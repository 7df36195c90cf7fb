package store

import (
	"context"
	"testing"
	"time"

	"github.com/clipforge/api/internal/model"
)

func newAsset(id string) *model.ContentAsset {
	now := time.Now().UTC()
	return &model.ContentAsset{
		ID:          id,
		Title:       "test asset",
		SourceURL:   "https://youtube.com/watch?v=abc",
		Status:      model.ContentStatusPending,
		StageStatus: model.StageStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMemoryStore_AssetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetAsset(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	asset := newAsset("a1")
	if err := s.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := s.GetAsset(ctx, "a1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != asset.Title {
		t.Errorf("title = %q, want %q", got.Title, asset.Title)
	}

	// Mutating the returned copy must not touch the stored record
	got.Title = "mutated"
	again, _ := s.GetAsset(ctx, "a1")
	if again.Title == "mutated" {
		t.Error("store returned a shared pointer")
	}
}

func TestMemoryStore_SaveAssetKeepsUpdatedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	asset := newAsset("a1")
	if err := s.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Staleness detection reads UpdatedAt back out of the store; a save
	// must not refresh it behind the caller's back.
	stale := time.Now().UTC().Add(-5 * time.Minute)
	asset.UpdatedAt = stale
	if err := s.SaveAsset(ctx, asset); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.GetAsset(ctx, "a1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.UpdatedAt.Equal(stale) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, stale)
	}
}

func TestMemoryStore_ClaimStage(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	asset := newAsset("a1")
	if err := s.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	claimed, err := s.ClaimStage(ctx, "a1", 0, model.StageStatusPending, 1)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed.Stage != 1 || claimed.StageStatus != model.StageStatusRunning {
		t.Errorf("claimed stage=%d status=%s, want 1/RUNNING", claimed.Stage, claimed.StageStatus)
	}
	if claimed.Status != model.ContentStatusProcessing {
		t.Errorf("overall status = %s, want PROCESSING", claimed.Status)
	}

	// A second claim against the stale expectation loses
	if _, err := s.ClaimStage(ctx, "a1", 0, model.StageStatusPending, 1); err != ErrBusy {
		t.Errorf("expected ErrBusy for concurrent claim, got %v", err)
	}
}

func TestMemoryStore_ClaimStageNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.ClaimStage(context.Background(), "nope", 0, model.StageStatusPending, 1); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ClipsByAsset(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"c1", "c2", "c3"} {
		assetID := "a1"
		if id == "c3" {
			assetID = "other"
		}
		clip := &model.Clip{
			ID:        id,
			AssetID:   assetID,
			Status:    model.ClipStatusReady,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveClip(ctx, clip); err != nil {
			t.Fatalf("save clip failed: %v", err)
		}
	}

	clips, err := s.ListClips(ctx, "a1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips for a1, got %d", len(clips))
	}
	if clips[0].ID != "c1" || clips[1].ID != "c2" {
		t.Errorf("clips not in creation order: %s, %s", clips[0].ID, clips[1].ID)
	}
}
