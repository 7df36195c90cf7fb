package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"github.com/clipforge/api/internal/config"
)

// ClipProvider abstracts the external clip-generation vendor. Both
// operations are single bounded round trips; an empty clip list is the
// ordinary "still processing" signal, not an error. Callers never
// block waiting on the vendor — repeated polling happens across
// separate pipeline advances.
type ClipProvider interface {
	CreateProject(ctx context.Context, sourceURL, name string) (string, error)
	ListClips(ctx context.Context, projectID string) ([]VendorClip, error)
	IsConfigured() bool
}

// VendorClip is one generated clip as reported by the vendor
type VendorClip struct {
	ID         string  `json:"id"`
	VideoURL   string  `json:"videoUrl"`
	Duration   float64 `json:"duration"`
	ViralScore float64 `json:"viralScore"`
	Title      string  `json:"title,omitempty"`
}

// VendorError reports a non-2xx vendor response
type VendorError struct {
	StatusCode int
	Body       string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vizard API error (status %d): %s", e.StatusCode, e.Body)
}

// VizardClient implements ClipProvider for the Vizard open API
type VizardClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	preferLength int
}

// NewVizardClient creates a new Vizard API client
func NewVizardClient(cfg *config.VizardConfig) *VizardClient {
	return &VizardClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		preferLength: cfg.PreferLength,
	}
}

// CreateProject submits a video URL for automated clipping and returns
// the vendor project ID.
func (c *VizardClient) CreateProject(ctx context.Context, sourceURL, name string) (string, error) {
	payload := map[string]interface{}{
		"videoUrl":     sourceURL,
		"projectName":  name,
		"lang":         "en",
		"preferLength": c.preferLength,
	}

	body, err := c.do(ctx, http.MethodPost, "/project/create", payload)
	if err != nil {
		return "", err
	}

	projectID := gjson.GetBytes(body, "data.projectId").String()
	if projectID == "" {
		return "", fmt.Errorf("vizard project creation returned no project ID")
	}
	return projectID, nil
}

// ListClips polls the vendor for generated clips. An empty slice means
// the project is still processing.
func (c *VizardClient) ListClips(ctx context.Context, projectID string) ([]VendorClip, error) {
	body, err := c.do(ctx, http.MethodGet, "/project/clip/list?projectId="+projectID, nil)
	if err != nil {
		return nil, err
	}

	list := gjson.GetBytes(body, "data.list")
	if !list.Exists() || !list.IsArray() {
		return nil, nil
	}

	var clips []VendorClip
	list.ForEach(func(_, item gjson.Result) bool {
		clips = append(clips, VendorClip{
			ID:         item.Get("clipId").String(),
			VideoURL:   item.Get("videoUrl").String(),
			Duration:   item.Get("duration").Float(),
			ViralScore: item.Get("viralScore").Float(),
			Title:      item.Get("title").String(),
		})
		return true
	})
	return clips, nil
}

// do executes one vendor round trip. Network errors and 5xx responses
// are retried with exponential backoff inside a short budget so a call
// stays well under the invocation time limit; 4xx responses are
// permanent.
func (c *VizardClient) do(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		var reqBody io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("failed to marshal request: %w", err))
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("api-key", c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 500 {
			return &VendorError{StatusCode: resp.StatusCode, Body: string(data)}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(&VendorError{StatusCode: resp.StatusCode, Body: string(data)})
		}

		respBody = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 10 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return respBody, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *VizardClient) IsConfigured() bool {
	return c.apiKey != ""
}
