package client

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/model"
)

// SourceResolver turns a source URL into metadata and a local audio
// file via yt-dlp.
type SourceResolver interface {
	ProbeMetadata(ctx context.Context, sourceURL string) (*model.FetchResult, error)
	DownloadAudio(ctx context.Context, sourceURL string) (string, error)
	IsConfigured() bool
}

// YtDlpResolver shells out to the yt-dlp binary
type YtDlpResolver struct {
	binPath string
	tempDir string
}

// maxDescriptionLen caps the stored description; the analyze fallback
// only needs the opening of it.
const maxDescriptionLen = 500

// NewYtDlpResolver creates a resolver backed by the yt-dlp binary
func NewYtDlpResolver(cfg *config.ResolverConfig) *YtDlpResolver {
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &YtDlpResolver{
		binPath: cfg.YtDlpPath,
		tempDir: tempDir,
	}
}

// ProbeMetadata fetches the video metadata without downloading media
func (r *YtDlpResolver) ProbeMetadata(ctx context.Context, sourceURL string) (*model.FetchResult, error) {
	cmd := exec.CommandContext(ctx, r.binPath,
		"--dump-json",
		"--skip-download",
		"--no-warnings",
		sourceURL,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp probe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseProbeOutput(stdout.String())
}

func parseProbeOutput(raw string) (*model.FetchResult, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("yt-dlp returned invalid metadata JSON")
	}
	description := gjson.Get(raw, "description").String()
	if len(description) > maxDescriptionLen {
		description = description[:maxDescriptionLen]
	}
	return &model.FetchResult{
		Title:       gjson.Get(raw, "title").String(),
		Duration:    gjson.Get(raw, "duration").Float(),
		Thumbnail:   gjson.Get(raw, "thumbnail").String(),
		Description: description,
		ViewCount:   gjson.Get(raw, "view_count").Int(),
		Uploader:    gjson.Get(raw, "uploader").String(),
		VideoID:     gjson.Get(raw, "id").String(),
	}, nil
}

// DownloadAudio extracts the best audio track to a temp file and
// returns its path. The caller owns cleanup.
func (r *YtDlpResolver) DownloadAudio(ctx context.Context, sourceURL string) (string, error) {
	outPath := filepath.Join(r.tempDir, fmt.Sprintf("audio-%s.m4a", uuid.New().String()))

	cmd := exec.CommandContext(ctx, r.binPath,
		"-f", "bestaudio[ext=m4a]/bestaudio",
		"--no-warnings",
		"--no-playlist",
		"-o", outPath,
		sourceURL,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp download failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("yt-dlp produced no output file: %w", err)
	}
	return outPath, nil
}

// IsConfigured reports whether the yt-dlp binary is resolvable
func (r *YtDlpResolver) IsConfigured() bool {
	if r.binPath == "" {
		return false
	}
	if filepath.IsAbs(r.binPath) {
		_, err := os.Stat(r.binPath)
		return err == nil
	}
	_, err := exec.LookPath(r.binPath)
	return err == nil
}
