package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/model"
)

func TestTranscribeSkipsOversizedAudio(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.audioSize = 30 * 1024 * 1024
	asset := env.createAsset(t)

	env.mustAdvance(t, asset.ID) // fetch
	resp := env.mustAdvance(t, asset.ID)

	if resp.Status != model.StageStatusSkipped {
		t.Fatalf("expected SKIPPED, got %s", resp.Status)
	}
	got := env.getAsset(t, asset.ID)
	rec := got.StageRecordAt(model.StageTranscribe)
	if rec.Transcribe == nil || rec.Transcribe.SegmentsCount != 0 {
		t.Fatalf("skipped transcription should persist an empty result, got %+v", rec.Transcribe)
	}

	// The pipeline continues past the skip.
	resp = env.mustAdvance(t, asset.ID)
	if resp.StageAdvancedTo != model.StageAnalyze {
		t.Fatalf("expected stage 3 after skip, got %d", resp.StageAdvancedTo)
	}
}

func TestAnalyzeFallsBackToMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.audioSize = 30 * 1024 * 1024
	env.resolver.meta.Description = "ek aur mast vlog"
	asset := env.createAsset(t)

	for i := 0; i < 3; i++ {
		env.mustAdvance(t, asset.ID)
	}

	got := env.getAsset(t, asset.ID)
	rec := got.StageRecordAt(model.StageAnalyze)
	if rec.Status != model.StageStatusCompleted {
		t.Fatalf("expected analyze COMPLETED on metadata fallback, got %s", rec.Status)
	}
	if rec.Analyze == nil || len(rec.Analyze.ViralSegments) != 1 {
		t.Fatalf("expected analyze result, got %+v", rec.Analyze)
	}
}

func TestClipLocalFallbackWithoutSegments(t *testing.T) {
	env := newTestEnv(t)
	env.ai.transcript = &model.TranscribeResult{FullText: "kuch nahi", SegmentsCount: 0}
	asset := env.createAsset(t)

	for i := 0; i < 4; i++ {
		env.mustAdvance(t, asset.ID)
	}

	got := env.getAsset(t, asset.ID)
	rec := got.StageRecordAt(model.StageClip)
	if rec.Status != model.StageStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", rec.Status)
	}
	if rec.Clip == nil || rec.Clip.ClipsCreated != 0 || rec.Clip.Source != "local" {
		t.Fatalf("expected empty local clip result, got %+v", rec.Clip)
	}

	// Stage 5 handles the empty clip set.
	resp := env.mustAdvance(t, asset.ID)
	if resp.Message != "No clips to caption" {
		t.Fatalf("unexpected publish message %q", resp.Message)
	}
}

func TestClipLocalFallbackCreatesScoredClips(t *testing.T) {
	env := newTestEnv(t)
	asset := env.createAsset(t)

	for i := 0; i < 4; i++ {
		env.mustAdvance(t, asset.ID)
	}

	clips, err := env.store.ListClips(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected 1 local clip, got %d", len(clips))
	}
	clip := clips[0]
	if clip.Duration < 5 {
		t.Fatalf("local clip below minimum duration: %f", clip.Duration)
	}
	if clip.ViralityScore <= 0 {
		t.Fatalf("local clip should carry a score, got %f", clip.ViralityScore)
	}
	if clip.Status != model.ClipStatusReady {
		t.Fatalf("expected READY clip, got %s", clip.Status)
	}
}

func TestVendorClipImportDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	env.clipper.configured = true
	env.clipper.projectID = "vz-proj-2"
	env.clipper.clips = []client.VendorClip{
		{ID: "c1", VideoURL: "https://cdn.example.com/a.mp4", Duration: 20, ViralScore: 0.7},
		{ID: "c2", VideoURL: "https://cdn.example.com/a.mp4", Duration: 20, ViralScore: 0.7},
		{ID: "c3", VideoURL: "", Duration: 15},
		{ID: "c4", VideoURL: "https://cdn.example.com/b.mp4", Duration: 25, ViralScore: 0.6},
	}
	asset := env.createAsset(t)

	for i := 0; i < 3; i++ {
		env.mustAdvance(t, asset.ID)
	}
	env.mustAdvance(t, asset.ID) // creates project, POLLING
	resp := env.mustAdvance(t, asset.ID)
	if resp.Status != model.StageStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", resp.Status)
	}

	clips, err := env.store.ListClips(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 deduplicated clips, got %d", len(clips))
	}

	// Re-running the stage must not duplicate existing imports.
	got := env.getAsset(t, asset.ID)
	got.StageStatus = model.StageStatusPolling
	got.Status = model.ContentStatusProcessing
	if err := env.store.SaveAsset(context.Background(), got); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}
	env.mustAdvance(t, asset.ID)

	clips, _ = env.store.ListClips(context.Background(), asset.ID)
	if len(clips) != 2 {
		t.Fatalf("re-import duplicated clips: got %d", len(clips))
	}
}

func TestPublishPostsHostedClips(t *testing.T) {
	env := newTestEnv(t)
	env.poster.results = []client.PostResult{
		{Platform: model.PlatformInstagram, Status: model.PostStatusPosted, PostID: "ig-1", PostURL: "https://www.instagram.com/p/ig-1"},
		{Platform: model.PlatformYouTube, Status: model.PostStatusSkipped, Error: "youtube not configured"},
	}
	asset := env.createAsset(t)
	ctx := context.Background()

	asset.Stage = 4
	asset.StageStatus = model.StageStatusCompleted
	asset.Status = model.ContentStatusProcessing
	if err := env.store.SaveAsset(ctx, asset); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}
	clip := &model.Clip{
		ID:        "clip-1",
		AssetID:   asset.ID,
		FileURL:   "https://cdn.example.com/clip-1.mp4",
		Duration:  30,
		Status:    model.ClipStatusReady,
		CreatedAt: time.Now().UTC(),
	}
	if err := env.store.SaveClip(ctx, clip); err != nil {
		t.Fatalf("SaveClip: %v", err)
	}

	resp := env.mustAdvance(t, asset.ID)
	if resp.Status != model.StageStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", resp.Status)
	}

	got := env.getAsset(t, asset.ID)
	rec := got.StageRecordAt(model.StagePublish)
	if rec.Publish == nil || rec.Publish.CaptionsGenerated != 1 || rec.Publish.PostsCreated != 1 {
		t.Fatalf("unexpected publish result %+v", rec.Publish)
	}

	clips, _ := env.store.ListClips(ctx, asset.ID)
	if clips[0].Status != model.ClipStatusPosted {
		t.Fatalf("posted clip should be POSTED, got %s", clips[0].Status)
	}
	if clips[0].Transcription == "" {
		t.Fatal("posted clip should carry caption JSON")
	}

	posts, err := env.store.ListPosts(ctx, clip.ID)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected one post row per platform, got %d", len(posts))
	}
	var posted, skipped bool
	for _, p := range posts {
		switch p.Status {
		case model.PostStatusPosted:
			posted = true
			if p.Caption != "ig caption" {
				t.Fatalf("expected instagram caption on post, got %q", p.Caption)
			}
			if p.PostedAt == nil {
				t.Fatal("posted row missing PostedAt")
			}
		case model.PostStatusSkipped:
			skipped = true
		}
	}
	if !posted || !skipped {
		t.Fatalf("expected one POSTED and one SKIPPED row, got %+v", posts)
	}
}

func TestPublishCaptionFailureDoesNotFailStage(t *testing.T) {
	env := newTestEnv(t)
	env.ai.captionErr = errBoom
	asset := env.createAsset(t)

	for i := 0; i < model.StageCount; i++ {
		env.mustAdvance(t, asset.ID)
	}

	got := env.getAsset(t, asset.ID)
	if got.Status != model.ContentStatusReady {
		t.Fatalf("caption failure must not fail the pipeline, got %s", got.Status)
	}
	rec := got.StageRecordAt(model.StagePublish)
	if rec.Publish == nil || rec.Publish.CaptionsGenerated != 0 {
		t.Fatalf("expected zero captions, got %+v", rec.Publish)
	}
}

func TestFetchSkippedWhenResolverUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.configured = false
	asset := env.createAsset(t)

	resp := env.mustAdvance(t, asset.ID)
	if resp.Status != model.StageStatusSkipped {
		t.Fatalf("expected SKIPPED, got %s", resp.Status)
	}
	if resp.StageAdvancedTo != model.StageFetch {
		t.Fatalf("expected stage 1, got %d", resp.StageAdvancedTo)
	}
}
