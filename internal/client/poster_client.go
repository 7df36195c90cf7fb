package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/model"
)

// PostResult is the outcome of publishing one clip to one platform
type PostResult struct {
	Platform model.Platform
	Status   model.PostStatus
	PostID   string
	PostURL  string
	Error    string
}

// SocialPoster publishes a finished clip to the configured platforms.
// Unconfigured platforms are reported as SKIPPED rather than failing
// the whole publish stage.
type SocialPoster interface {
	PostClip(ctx context.Context, clip *model.Clip, captions *CaptionSet) []PostResult
	ConfiguredPlatforms() []model.Platform
}

// PosterClient posts clips to Instagram Reels via the Graph API and to
// YouTube Shorts via the upload gateway.
type PosterClient struct {
	httpClient *http.Client
	instagram  config.InstagramConfig
	youtube    config.YouTubeConfig
}

// NewPosterClient creates a new social posting client
func NewPosterClient(cfg *config.SocialConfig) *PosterClient {
	return &PosterClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		instagram: cfg.Instagram,
		youtube:   cfg.YouTube,
	}
}

// PostClip publishes the clip to every configured platform and returns
// one result per platform, configured or not.
func (c *PosterClient) PostClip(ctx context.Context, clip *model.Clip, captions *CaptionSet) []PostResult {
	results := make([]PostResult, 0, 2)

	if c.instagram.AccessToken == "" || c.instagram.UserID == "" {
		results = append(results, PostResult{Platform: model.PlatformInstagram, Status: model.PostStatusSkipped, Error: "instagram not configured"})
	} else {
		results = append(results, c.postInstagram(ctx, clip, captions))
	}

	if c.youtube.AccessToken == "" {
		results = append(results, PostResult{Platform: model.PlatformYouTube, Status: model.PostStatusSkipped, Error: "youtube not configured"})
	} else {
		results = append(results, c.postYouTube(ctx, clip, captions))
	}

	return results
}

// postInstagram runs the two-step Reels flow: create a media container
// for the hosted clip URL, then publish it.
func (c *PosterClient) postInstagram(ctx context.Context, clip *model.Clip, captions *CaptionSet) PostResult {
	result := PostResult{Platform: model.PlatformInstagram}

	caption := ""
	if captions != nil {
		caption = captions.Instagram
	}
	containerBody, err := c.postJSON(ctx, fmt.Sprintf("%s/%s/media", c.instagram.BaseURL, c.instagram.UserID), map[string]interface{}{
		"media_type":   "REELS",
		"video_url":    clip.FileURL,
		"caption":      caption,
		"access_token": c.instagram.AccessToken,
	})
	if err != nil {
		result.Status = model.PostStatusFailed
		result.Error = err.Error()
		return result
	}
	containerID := gjson.GetBytes(containerBody, "id").String()
	if containerID == "" {
		result.Status = model.PostStatusFailed
		result.Error = "media container creation returned no ID"
		return result
	}

	publishBody, err := c.postJSON(ctx, fmt.Sprintf("%s/%s/media_publish", c.instagram.BaseURL, c.instagram.UserID), map[string]interface{}{
		"creation_id":  containerID,
		"access_token": c.instagram.AccessToken,
	})
	if err != nil {
		result.Status = model.PostStatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = model.PostStatusPosted
	result.PostID = gjson.GetBytes(publishBody, "id").String()
	if result.PostID != "" {
		result.PostURL = "https://www.instagram.com/p/" + result.PostID
	}
	return result
}

// postYouTube hands the hosted clip URL to the Shorts upload gateway,
// which pulls the file and runs the resumable upload on our behalf.
func (c *PosterClient) postYouTube(ctx context.Context, clip *model.Clip, captions *CaptionSet) PostResult {
	result := PostResult{Platform: model.PlatformYouTube}

	description := ""
	if captions != nil {
		description = captions.YouTube
	}
	payload := map[string]interface{}{
		"video_url":   clip.FileURL,
		"description": description,
		"shorts":      true,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		result.Status = model.PostStatusFailed
		result.Error = err.Error()
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.youtube.BaseURL+"/uploads", bytes.NewReader(data))
	if err != nil {
		result.Status = model.PostStatusFailed
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Authorization", "Bearer "+c.youtube.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Status = model.PostStatusFailed
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Status = model.PostStatusFailed
		result.Error = fmt.Sprintf("youtube upload error (status %d): %s", resp.StatusCode, string(body))
		return result
	}

	result.Status = model.PostStatusPosted
	result.PostID = gjson.GetBytes(body, "video_id").String()
	if result.PostID != "" {
		result.PostURL = "https://www.youtube.com/shorts/" + result.PostID
	}
	return result
}

func (c *PosterClient) postJSON(ctx context.Context, url string, payload map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graph API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// ConfiguredPlatforms lists the platforms this client can post to
func (c *PosterClient) ConfiguredPlatforms() []model.Platform {
	var platforms []model.Platform
	if c.instagram.AccessToken != "" && c.instagram.UserID != "" {
		platforms = append(platforms, model.PlatformInstagram)
	}
	if c.youtube.AccessToken != "" {
		platforms = append(platforms, model.PlatformYouTube)
	}
	return platforms
}
