package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/gjson"

	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/model"
)

// Transcriber converts an audio file into timestamped segments
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*model.TranscribeResult, error)
	IsConfigured() bool
}

// Analyzer extracts viral segments and posting strategy from a transcript
type Analyzer interface {
	Analyze(ctx context.Context, transcript, title string) (*model.AnalyzeResult, error)
	IsConfigured() bool
}

// CaptionSet holds the per-platform caption variants for one clip
type CaptionSet struct {
	Instagram string `json:"ig"`
	YouTube   string `json:"yt"`
}

// Captioner writes platform-ready captions for a clip transcript
type Captioner interface {
	GenerateCaptions(ctx context.Context, text string) (*CaptionSet, error)
	IsConfigured() bool
}

// OpenAIClient implements Transcriber, Analyzer and Captioner against
// the OpenAI API. Chat calls go through the official SDK; the whisper
// call is a raw multipart request because segment-level confidence is
// only present in the verbose_json response body.
type OpenAIClient struct {
	chat          openai.Client
	httpClient    *http.Client
	apiKey        string
	baseURL       string
	whisperModel  string
	analysisModel string
	captionModel  string
}

// NewOpenAIClient creates a new OpenAI API client
func NewOpenAIClient(cfg *config.OpenAIConfig) *OpenAIClient {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		chat: openai.NewClient(clientOpts...),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		whisperModel:  cfg.WhisperModel,
		analysisModel: cfg.AnalysisModel,
		captionModel:  cfg.CaptionModel,
	}
}

// Transcribe uploads an audio file and returns the transcript with
// per-segment timestamps and average log probabilities.
func (c *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (*model.TranscribeResult, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	_ = w.WriteField("model", c.whisperModel)
	_ = w.WriteField("response_format", "verbose_json")
	_ = w.WriteField("timestamp_granularities[]", "segment")
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

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
		return nil, fmt.Errorf("transcription API error (status %d): %s", resp.StatusCode, string(body))
	}

	result := &model.TranscribeResult{
		FullText: gjson.GetBytes(body, "text").String(),
		Language: gjson.GetBytes(body, "language").String(),
		Duration: gjson.GetBytes(body, "duration").Float(),
	}
	gjson.GetBytes(body, "segments").ForEach(func(_, seg gjson.Result) bool {
		result.Segments = append(result.Segments, model.ScoredSegment{
			Start:      seg.Get("start").Float(),
			End:        seg.Get("end").Float(),
			Text:       strings.TrimSpace(seg.Get("text").String()),
			AvgLogprob: seg.Get("avg_logprob").Float(),
		})
		return true
	})
	result.SegmentsCount = len(result.Segments)
	return result, nil
}

const analysisSystemPrompt = "You are a short-form content strategist for Hinglish creator videos. " +
	"Given a transcript you identify the moments most likely to go viral as vertical clips. Respond only with JSON."

// Analyze asks the chat model for viral segments and a posting
// strategy. The transcript is expected to be pre-truncated by the
// caller.
func (c *OpenAIClient) Analyze(ctx context.Context, transcript, title string) (*model.AnalyzeResult, error) {
	userPrompt := fmt.Sprintf(`Video title: %s

Transcript:
%s

Return JSON with this shape:
{"viral_segments":[{"start_time":0.0,"end_time":0.0,"hook":"...","virality_score":0.0,"emotion":"..."}],"content_summary":"...","best_posting_times":["..."],"hashtags":["..."],"target_audience":"..."}`, title, transcript)

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analysisSystemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       c.analysisModel,
		Temperature: openai.Float(0.3),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	}
	resp, err := c.chat.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("analysis returned no choices")
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("analysis response is not valid JSON")
	}

	result := &model.AnalyzeResult{
		ContentSummary: gjson.Get(raw, "content_summary").String(),
		TargetAudience: gjson.Get(raw, "target_audience").String(),
	}
	gjson.Get(raw, "viral_segments").ForEach(func(_, seg gjson.Result) bool {
		result.ViralSegments = append(result.ViralSegments, model.ViralSegment{
			StartTime:     seg.Get("start_time").Float(),
			EndTime:       seg.Get("end_time").Float(),
			Hook:          seg.Get("hook").String(),
			ViralityScore: seg.Get("virality_score").Float(),
			Emotion:       seg.Get("emotion").String(),
		})
		return true
	})
	gjson.Get(raw, "best_posting_times").ForEach(func(_, v gjson.Result) bool {
		result.BestPostingTimes = append(result.BestPostingTimes, v.String())
		return true
	})
	gjson.Get(raw, "hashtags").ForEach(func(_, v gjson.Result) bool {
		result.Hashtags = append(result.Hashtags, v.String())
		return true
	})
	return result, nil
}

const captionSystemPrompt = "You write captions for short vertical clips from Hinglish creator videos. " +
	"Keep the Hinglish voice, add relevant emoji, and end with hashtags. Respond only with JSON."

// GenerateCaptions writes Instagram and YouTube caption variants for a
// clip transcript.
func (c *OpenAIClient) GenerateCaptions(ctx context.Context, text string) (*CaptionSet, error) {
	userPrompt := fmt.Sprintf(`Clip transcript:
%s

Return JSON: {"ig":"instagram caption","yt":"youtube shorts title and description"}`, text)

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(captionSystemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       c.captionModel,
		Temperature: openai.Float(0.7),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	}
	resp, err := c.chat.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("caption request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("caption model returned no choices")
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)

	var captions CaptionSet
	if err := json.Unmarshal([]byte(raw), &captions); err != nil {
		return nil, fmt.Errorf("failed to parse caption response: %w", err)
	}
	return &captions, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}
