package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clipforge/api/internal/analysis"
	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/logger"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/store"
)

// maxVendorClips bounds how many clips we import from one vendor
// project.
const maxVendorClips = 15

// AIClient covers the three LLM-backed operations the stages need
type AIClient interface {
	Transcribe(ctx context.Context, audioPath string) (*model.TranscribeResult, error)
	Analyze(ctx context.Context, transcript, title string) (*model.AnalyzeResult, error)
	GenerateCaptions(ctx context.Context, text string) (*client.CaptionSet, error)
	IsConfigured() bool
}

// Stages executes the five pipeline stages. Each method runs exactly
// one stage to a terminal outcome (or POLLING) and may mutate the
// asset; the controller owns persistence and status transitions.
type Stages struct {
	cfg      *config.Config
	log      *logger.Logger
	store    store.Store
	resolver client.SourceResolver
	ai       AIClient
	clipper  client.ClipProvider
	poster   client.SocialPoster
	storage  client.StorageClient
}

// StagesDeps bundles the external dependencies of the stage executor
type StagesDeps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    store.Store
	Resolver client.SourceResolver
	AI       AIClient
	Clipper  client.ClipProvider
	Poster   client.SocialPoster
	Storage  client.StorageClient
}

// NewStages creates the stage executor
func NewStages(deps StagesDeps) *Stages {
	return &Stages{
		cfg:      deps.Config,
		log:      deps.Logger,
		store:    deps.Store,
		resolver: deps.Resolver,
		ai:       deps.AI,
		clipper:  deps.Clipper,
		poster:   deps.Poster,
		storage:  deps.Storage,
	}
}

// Run executes the given 1-based stage against the asset
func (s *Stages) Run(ctx context.Context, stage int, asset *model.ContentAsset) (*Outcome, error) {
	switch stage {
	case model.StageFetch:
		return s.fetch(ctx, asset)
	case model.StageTranscribe:
		return s.transcribe(ctx, asset)
	case model.StageAnalyze:
		return s.analyze(ctx, asset)
	case model.StageClip:
		return s.clip(ctx, asset)
	case model.StagePublish:
		return s.publish(ctx, asset)
	default:
		return nil, Fatal(fmt.Errorf("unknown stage %d", stage))
	}
}

// fetch resolves source metadata and backfills the asset title
func (s *Stages) fetch(ctx context.Context, asset *model.ContentAsset) (*Outcome, error) {
	if s.resolver == nil || !s.resolver.IsConfigured() {
		return Skipped("Metadata resolver not available"), nil
	}

	meta, err := s.resolver.ProbeMetadata(ctx, asset.SourceURL)
	if err != nil {
		return nil, Transient(fmt.Errorf("metadata probe failed: %w", err))
	}

	if asset.Title == "" || asset.Title == "Untitled" {
		asset.Title = meta.Title
	}

	out := Completed("Title: %s, Duration: %.0fs", meta.Title, meta.Duration)
	out.Fetch = meta
	return out, nil
}

// transcribe downloads the audio track and runs whisper over it. Each
// returned segment gets its hook and energy scores before persistence.
func (s *Stages) transcribe(ctx context.Context, asset *model.ContentAsset) (*Outcome, error) {
	if s.ai == nil || !s.ai.IsConfigured() {
		return Skipped("Transcription not configured"), nil
	}
	if s.resolver == nil || !s.resolver.IsConfigured() {
		return Skipped("Audio download not available"), nil
	}

	audioPath, err := s.resolver.DownloadAudio(ctx, asset.SourceURL)
	if err != nil {
		return nil, Transient(fmt.Errorf("audio download failed: %w", err))
	}
	defer os.Remove(audioPath)

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, Transient(fmt.Errorf("audio file unreadable: %w", err))
	}
	sizeMB := info.Size() / (1024 * 1024)
	if sizeMB > int64(s.cfg.OpenAI.MaxAudioSizeMB) {
		out := Skipped("Audio too large: %dMB exceeds %dMB limit", sizeMB, s.cfg.OpenAI.MaxAudioSizeMB)
		out.Transcribe = &model.TranscribeResult{}
		return out, nil
	}

	result, err := s.ai.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, Transient(fmt.Errorf("transcription failed: %w", err))
	}
	result.Segments = analysis.ScoreAll(result.Segments)

	out := Completed("%d segments transcribed", result.SegmentsCount)
	out.Transcribe = result
	return out, nil
}

// analyze asks the LLM for viral segments. When the transcript is
// empty the fetched title and description stand in for it, so a
// skipped transcription still yields a posting strategy.
func (s *Stages) analyze(ctx context.Context, asset *model.ContentAsset) (*Outcome, error) {
	if s.ai == nil || !s.ai.IsConfigured() {
		return Skipped("Analysis not configured"), nil
	}

	transcript := ""
	if rec := asset.StageRecordAt(model.StageTranscribe); rec != nil && rec.Transcribe != nil {
		transcript = rec.Transcribe.FullText
	}
	if strings.TrimSpace(transcript) == "" {
		if rec := asset.StageRecordAt(model.StageFetch); rec != nil && rec.Fetch != nil {
			transcript = rec.Fetch.Title + "\n" + rec.Fetch.Description
		}
	}
	if strings.TrimSpace(transcript) == "" {
		return Skipped("Nothing to analyze"), nil
	}
	if len(transcript) > s.cfg.OpenAI.MaxTranscriptLen {
		transcript = transcript[:s.cfg.OpenAI.MaxTranscriptLen]
	}

	result, err := s.ai.Analyze(ctx, transcript, asset.Title)
	if err != nil {
		return nil, Transient(fmt.Errorf("analysis failed: %w", err))
	}

	out := Completed("%d viral segments found", len(result.ViralSegments))
	out.Analyze = result
	return out, nil
}

// clip produces clips either through the external vendor or, when the
// vendor is unconfigured, by windowing the scored transcript segments
// locally. The vendor path is asynchronous: the first pass creates the
// project and every pass until the vendor finishes returns POLLING.
func (s *Stages) clip(ctx context.Context, asset *model.ContentAsset) (*Outcome, error) {
	if s.clipper != nil && s.clipper.IsConfigured() {
		return s.clipViaVendor(ctx, asset)
	}
	return s.clipLocally(ctx, asset)
}

func (s *Stages) clipViaVendor(ctx context.Context, asset *model.ContentAsset) (*Outcome, error) {
	log := s.log.WithAsset(asset.ID)

	if asset.ProviderMeta.VendorProjectID == "" {
		projectID, err := s.clipper.CreateProject(ctx, asset.SourceURL, asset.Title)
		if err != nil {
			return nil, Transient(fmt.Errorf("vendor project creation failed: %w", err))
		}
		asset.ProviderMeta.VendorProjectID = projectID
		log.WithField("project_id", projectID).Info("vendor clip project created")
		return Polling("Clip generation started"), nil
	}

	vendorClips, err := s.clipper.ListClips(ctx, asset.ProviderMeta.VendorProjectID)
	if err != nil {
		return nil, Transient(fmt.Errorf("vendor clip poll failed: %w", err))
	}
	if len(vendorClips) == 0 {
		return Polling("Clip generation in progress"), nil
	}

	existing, err := s.store.ListClips(ctx, asset.ID)
	if err != nil {
		return nil, Transient(fmt.Errorf("failed to list clips: %w", err))
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c.FileURL] = true
	}

	created := 0
	now := time.Now().UTC()
	for _, vc := range vendorClips {
		if created >= maxVendorClips {
			break
		}
		if vc.VideoURL == "" || seen[vc.VideoURL] {
			continue
		}
		seen[vc.VideoURL] = true

		clip := &model.Clip{
			ID:            uuid.New().String(),
			AssetID:       asset.ID,
			Duration:      vc.Duration,
			EndTime:       vc.Duration,
			FileURL:       vc.VideoURL,
			Status:        model.ClipStatusReady,
			ViralityScore: vc.ViralScore,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if vc.Title != "" {
			clip.SourceTexts = []string{vc.Title}
		}
		if s.storage != nil && s.storage.IsConfigured() {
			key := fmt.Sprintf("clips/%s/%s.mp4", asset.ID, clip.ID)
			archiveURL, err := s.storage.ArchiveRemote(ctx, vc.VideoURL, key)
			if err != nil {
				log.WithError(err).Warn("clip archive failed, keeping vendor URL")
			} else {
				clip.ArchiveURL = archiveURL
			}
		}
		if err := s.store.SaveClip(ctx, clip); err != nil {
			return nil, Transient(fmt.Errorf("failed to save clip: %w", err))
		}
		created++
	}

	out := Completed("%d clips generated", created)
	out.Clip = &model.ClipStageResult{
		ClipsCreated: created,
		Source:       "vendor",
		ProjectID:    asset.ProviderMeta.VendorProjectID,
	}
	return out, nil
}

func (s *Stages) clipLocally(ctx context.Context, asset *model.ContentAsset) (*Outcome, error) {
	var segments []model.ScoredSegment
	if rec := asset.StageRecordAt(model.StageTranscribe); rec != nil && rec.Transcribe != nil {
		segments = rec.Transcribe.Segments
	}

	windows := analysis.BuildClipWindows(segments, analysis.DefaultMinScore)
	now := time.Now().UTC()
	for _, w := range windows {
		clip := &model.Clip{
			ID:            uuid.New().String(),
			AssetID:       asset.ID,
			StartTime:     w.Start,
			EndTime:       w.End,
			Duration:      w.Duration,
			Status:        model.ClipStatusReady,
			ViralityScore: w.Score,
			SourceTexts:   w.Texts,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.store.SaveClip(ctx, clip); err != nil {
			return nil, Transient(fmt.Errorf("failed to save clip: %w", err))
		}
	}

	out := Completed("%d clips generated", len(windows))
	out.Clip = &model.ClipStageResult{
		ClipsCreated: len(windows),
		Source:       "local",
	}
	return out, nil
}

// publish writes captions for every finished clip and posts the hosted
// ones. Caption or posting failures for one clip never fail the stage;
// they are recorded on the clip and post rows.
func (s *Stages) publish(ctx context.Context, asset *model.ContentAsset) (*Outcome, error) {
	clips, err := s.store.ListClips(ctx, asset.ID)
	if err != nil {
		return nil, Transient(fmt.Errorf("failed to list clips: %w", err))
	}
	if len(clips) == 0 {
		out := Completed("No clips to caption")
		out.Publish = &model.PublishResult{}
		return out, nil
	}

	log := s.log.WithAsset(asset.ID)
	captionsGenerated := 0
	postsCreated := 0
	now := time.Now().UTC()

	for _, clip := range clips {
		if clip.Status != model.ClipStatusReady {
			continue
		}

		captions := s.captionsFor(ctx, asset, clip, log)
		if captions != nil && clip.Transcription == "" {
			if data, err := json.Marshal(captions); err == nil {
				clip.Transcription = string(data)
				captionsGenerated++
			}
		}

		if s.poster != nil && isHostedURL(clip.FileURL) {
			posted := false
			for _, res := range s.poster.PostClip(ctx, clip, captions) {
				post := &model.Post{
					ID:             uuid.New().String(),
					ClipID:         clip.ID,
					Platform:       res.Platform,
					Status:         res.Status,
					PostURL:        res.PostURL,
					PlatformPostID: res.PostID,
					ErrorMessage:   res.Error,
					CreatedAt:      now,
				}
				if captions != nil {
					switch res.Platform {
					case model.PlatformInstagram:
						post.Caption = captions.Instagram
					case model.PlatformYouTube:
						post.Caption = captions.YouTube
					}
				}
				if res.Status == model.PostStatusPosted {
					ts := now
					post.PostedAt = &ts
					posted = true
					postsCreated++
				}
				if err := s.store.SavePost(ctx, post); err != nil {
					return nil, Transient(fmt.Errorf("failed to save post: %w", err))
				}
			}
			if posted {
				clip.Status = model.ClipStatusPosted
			}
		}

		clip.UpdatedAt = now
		if err := s.store.SaveClip(ctx, clip); err != nil {
			return nil, Transient(fmt.Errorf("failed to save clip: %w", err))
		}
	}

	out := Completed("%d captions, %d posts", captionsGenerated, postsCreated)
	out.Publish = &model.PublishResult{
		CaptionsGenerated: captionsGenerated,
		PostsCreated:      postsCreated,
	}
	return out, nil
}

// captionsFor returns the caption set for a clip, generating one if
// the clip has none yet. Generation failures log and fall through to
// nil so posting can proceed captionless.
func (s *Stages) captionsFor(ctx context.Context, asset *model.ContentAsset, clip *model.Clip, log *logrus.Entry) *client.CaptionSet {
	if clip.Transcription != "" {
		var existing client.CaptionSet
		if err := json.Unmarshal([]byte(clip.Transcription), &existing); err == nil {
			return &existing
		}
	}
	if s.ai == nil || !s.ai.IsConfigured() {
		return nil
	}

	text := strings.Join(clip.SourceTexts, " ")
	if strings.TrimSpace(text) == "" {
		text = asset.Title
	}
	captions, err := s.ai.GenerateCaptions(ctx, text)
	if err != nil {
		log.Warn("caption generation failed: ", err)
		return nil
	}
	return captions
}

func isHostedURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
