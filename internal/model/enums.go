package model

// Overall asset lifecycle status
type ContentStatus string

const (
	ContentStatusPending    ContentStatus = "PENDING"
	ContentStatusProcessing ContentStatus = "PROCESSING"
	ContentStatusReady      ContentStatus = "READY"
	ContentStatusFailed     ContentStatus = "FAILED"
)

// Per-stage status
type StageStatus string

const (
	StageStatusPending   StageStatus = "PENDING"
	StageStatusRunning   StageStatus = "RUNNING"
	StageStatusCompleted StageStatus = "COMPLETED"
	StageStatusFailed    StageStatus = "FAILED"
	StageStatusSkipped   StageStatus = "SKIPPED"
	StageStatusPolling   StageStatus = "POLLING"
)

// Clip status
type ClipStatus string

const (
	ClipStatusPending    ClipStatus = "PENDING"
	ClipStatusProcessing ClipStatus = "PROCESSING"
	ClipStatusReady      ClipStatus = "READY"
	ClipStatusPosted     ClipStatus = "POSTED"
	ClipStatusFailed     ClipStatus = "FAILED"
)

// Post status
type PostStatus string

const (
	PostStatusScheduled PostStatus = "SCHEDULED"
	PostStatusPosting   PostStatus = "POSTING"
	PostStatusPosted    PostStatus = "POSTED"
	PostStatusSkipped   PostStatus = "SKIPPED"
	PostStatusFailed    PostStatus = "FAILED"
)

// Publishing platforms
type Platform string

const (
	PlatformYouTube   Platform = "YOUTUBE"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformLocal     Platform = "LOCAL"
)

var ValidPlatforms = []Platform{
	PlatformYouTube, PlatformInstagram, PlatformLocal,
}

// Pipeline stages (fixed contract, 1-based ordinals)
const (
	StageFetch      = 1
	StageTranscribe = 2
	StageAnalyze    = 3
	StageClip       = 4
	StagePublish    = 5

	StageCount = 5
)

// StageNames maps stage ordinals to display names. Ordinal 0 means
// the pipeline has not started.
var StageNames = map[int]string{
	0:               "Not Started",
	StageFetch:      "Fetch Metadata",
	StageTranscribe: "Transcribe",
	StageAnalyze:    "Analyze",
	StageClip:       "Generate Clips",
	StagePublish:    "Caption & Post",
}

// StageName returns the display name for a stage ordinal
func StageName(stage int) string {
	if name, ok := StageNames[stage]; ok {
		return name
	}
	return "Unknown"
}
