package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/logger"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/store"
)

type fakeResolver struct {
	configured bool
	meta       *model.FetchResult
	probeErr   error
	audioDir   string
	audioSize  int
	dlErr      error
}

func (f *fakeResolver) ProbeMetadata(ctx context.Context, sourceURL string) (*model.FetchResult, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.meta, nil
}

func (f *fakeResolver) DownloadAudio(ctx context.Context, sourceURL string) (string, error) {
	if f.dlErr != nil {
		return "", f.dlErr
	}
	path := filepath.Join(f.audioDir, "audio.m4a")
	size := f.audioSize
	if size == 0 {
		size = 1024
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeResolver) IsConfigured() bool { return f.configured }

type fakeAI struct {
	configured    bool
	transcript    *model.TranscribeResult
	transcribeErr error
	analysis      *model.AnalyzeResult
	analyzeErr    error
	captions      *client.CaptionSet
	captionErr    error
	captionCalls  int
}

func (f *fakeAI) Transcribe(ctx context.Context, audioPath string) (*model.TranscribeResult, error) {
	if f.transcribeErr != nil {
		return nil, f.transcribeErr
	}
	return f.transcript, nil
}

func (f *fakeAI) Analyze(ctx context.Context, transcript, title string) (*model.AnalyzeResult, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *fakeAI) GenerateCaptions(ctx context.Context, text string) (*client.CaptionSet, error) {
	f.captionCalls++
	if f.captionErr != nil {
		return nil, f.captionErr
	}
	return f.captions, nil
}

func (f *fakeAI) IsConfigured() bool { return f.configured }

type fakeClipper struct {
	configured  bool
	projectID   string
	createErr   error
	createCalls int
	clips       []client.VendorClip
	listErr     error
	listCalls   int
}

func (f *fakeClipper) CreateProject(ctx context.Context, sourceURL, name string) (string, error) {
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.projectID, nil
}

func (f *fakeClipper) ListClips(ctx context.Context, projectID string) ([]client.VendorClip, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.clips, nil
}

func (f *fakeClipper) IsConfigured() bool { return f.configured }

type fakePoster struct {
	results []client.PostResult
}

func (f *fakePoster) PostClip(ctx context.Context, clip *model.Clip, captions *client.CaptionSet) []client.PostResult {
	return f.results
}

func (f *fakePoster) ConfiguredPlatforms() []model.Platform {
	var out []model.Platform
	for _, r := range f.results {
		if r.Status != model.PostStatusSkipped {
			out = append(out, r.Platform)
		}
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			StaleAfter: 120 * time.Second,
			PollDelay:  30 * time.Second,
		},
		OpenAI: config.OpenAIConfig{
			MaxAudioSizeMB:   25,
			MaxTranscriptLen: 8000,
		},
	}
}

type testEnv struct {
	cfg      *config.Config
	store    *store.MemoryStore
	resolver *fakeResolver
	ai       *fakeAI
	clipper  *fakeClipper
	poster   *fakePoster
	ctrl     *Controller
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	log := logger.New("development", "error")
	st := store.NewMemoryStore()

	env := &testEnv{
		cfg:   cfg,
		store: st,
		resolver: &fakeResolver{
			configured: true,
			audioDir:   t.TempDir(),
			meta:       &model.FetchResult{Title: "Bhai Ka Vlog", Duration: 300},
		},
		ai: &fakeAI{
			configured: true,
			transcript: &model.TranscribeResult{
				FullText:      "bhai dekh kya scene hai",
				Language:      "hi",
				Duration:      300,
				SegmentsCount: 1,
				Segments: []model.ScoredSegment{
					{Start: 0, End: 5, Text: "bhai dekh kya scene hai", AvgLogprob: -0.2},
				},
			},
			analysis: &model.AnalyzeResult{
				ViralSegments: []model.ViralSegment{
					{StartTime: 0, EndTime: 5, Hook: "bhai dekh", ViralityScore: 0.8},
				},
				ContentSummary: "vlog highlights",
			},
			captions: &client.CaptionSet{Instagram: "ig caption", YouTube: "yt caption"},
		},
		clipper: &fakeClipper{},
		poster:  &fakePoster{},
	}

	stages := NewStages(StagesDeps{
		Config:   cfg,
		Logger:   log,
		Store:    st,
		Resolver: env.resolver,
		AI:       env.ai,
		Clipper:  env.clipper,
		Poster:   env.poster,
	})
	env.ctrl = NewController(cfg, log, st, stages, nil)
	return env
}

func (e *testEnv) createAsset(t *testing.T) *model.ContentAsset {
	t.Helper()
	now := time.Now().UTC()
	asset := &model.ContentAsset{
		ID:          "asset-1",
		Title:       "Untitled",
		SourceURL:   "https://www.youtube.com/watch?v=abc123",
		SourceType:  model.PlatformYouTube,
		Status:      model.ContentStatusPending,
		Stage:       0,
		StageStatus: model.StageStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateAsset(context.Background(), asset); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	return asset
}

func (e *testEnv) mustAdvance(t *testing.T, assetID string) *model.AdvanceResponse {
	t.Helper()
	resp, err := e.ctrl.Advance(context.Background(), assetID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	return resp
}

func (e *testEnv) getAsset(t *testing.T, id string) *model.ContentAsset {
	t.Helper()
	asset, err := e.store.GetAsset(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	return asset
}

var errBoom = errors.New("boom")
