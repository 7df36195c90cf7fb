package model

import "time"

// ContentAsset represents one unit of source media under processing.
// It is mutated exclusively by pipeline advances; the stage number
// never decreases across successful advances.
type ContentAsset struct {
	ID           string                  `json:"id"`
	Title        string                  `json:"title"`
	SourceURL    string                  `json:"sourceUrl"`
	SourceType   Platform                `json:"sourceType"`
	Status       ContentStatus           `json:"status"`
	Stage        int                     `json:"stage"`       // 0..5, 0 = not started
	StageStatus  StageStatus             `json:"stageStatus"` // status of the current stage
	Stages       [StageCount]StageRecord `json:"stages"`      // keyed by ordinal-1
	ErrorMessage string                  `json:"errorMessage,omitempty"`
	ProviderMeta ProviderMeta            `json:"providerMeta"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

// ProviderMeta holds external vendor bookkeeping for an asset.
type ProviderMeta struct {
	VendorProjectID string `json:"vendorProjectId,omitempty"`
}

// StageRecord is the persisted record of one stage execution. Exactly
// one of the typed result pointers is set once the stage has produced
// a result; which one is determined by the stage ordinal.
type StageRecord struct {
	Status    StageStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`

	Fetch      *FetchResult      `json:"fetch,omitempty"`
	Transcribe *TranscribeResult `json:"transcribe,omitempty"`
	Analyze    *AnalyzeResult    `json:"analyze,omitempty"`
	Clip       *ClipStageResult  `json:"clip,omitempty"`
	Publish    *PublishResult    `json:"publish,omitempty"`
}

// StageRecordAt returns the record for a 1-based stage ordinal.
func (a *ContentAsset) StageRecordAt(stage int) *StageRecord {
	if stage < 1 || stage > StageCount {
		return nil
	}
	return &a.Stages[stage-1]
}

// SetStageRecord stores the record for a 1-based stage ordinal.
func (a *ContentAsset) SetStageRecord(stage int, rec StageRecord) {
	if stage < 1 || stage > StageCount {
		return
	}
	a.Stages[stage-1] = rec
}

// FetchResult is stage 1 output: source metadata.
type FetchResult struct {
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Description string  `json:"description,omitempty"`
	ViewCount   int64   `json:"viewCount,omitempty"`
	Uploader    string  `json:"uploader,omitempty"`
	VideoID     string  `json:"videoId,omitempty"`
}

// TranscribeResult is stage 2 output: the transcript plus scored segments.
type TranscribeResult struct {
	FullText      string          `json:"fullText"`
	Language      string          `json:"language"`
	Duration      float64         `json:"duration"`
	SegmentsCount int             `json:"segmentsCount"`
	Segments      []ScoredSegment `json:"segments,omitempty"`
}

// ScoredSegment is one transcribed span with its hook/energy scores.
// Immutable once scored.
type ScoredSegment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	AvgLogprob  float64 `json:"avgLogprob"`
	HookScore   float64 `json:"hookScore"`
	EnergyScore float64 `json:"energyScore"`
}

// AnalyzeResult is stage 3 output: LLM-derived viral hints.
type AnalyzeResult struct {
	ViralSegments    []ViralSegment `json:"viralSegments"`
	ContentSummary   string         `json:"contentSummary,omitempty"`
	BestPostingTimes []string       `json:"bestPostingTimes,omitempty"`
	Hashtags         []string       `json:"hashtags,omitempty"`
	TargetAudience   string         `json:"targetAudience,omitempty"`
}

// ViralSegment is one LLM-suggested highlight.
type ViralSegment struct {
	StartTime     float64 `json:"startTime"`
	EndTime       float64 `json:"endTime"`
	Hook          string  `json:"hook,omitempty"`
	ViralityScore float64 `json:"viralityScore"`
	Emotion       string  `json:"emotion,omitempty"`
}

// ClipStageResult is stage 4 output.
type ClipStageResult struct {
	ClipsCreated int    `json:"clipsCreated"`
	Source       string `json:"source"` // "vendor" or "local"
	ProjectID    string `json:"projectId,omitempty"`
}

// PublishResult is stage 5 output.
type PublishResult struct {
	CaptionsGenerated int `json:"captionsGenerated"`
	PostsCreated      int `json:"postsCreated"`
}
