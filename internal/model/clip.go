package model

import "time"

// Clip is a derived short clip cut from a ContentAsset.
type Clip struct {
	ID            string     `json:"id"`
	AssetID       string     `json:"assetId"`
	StartTime     float64    `json:"startTime"`
	EndTime       float64    `json:"endTime"`
	Duration      float64    `json:"duration"`
	FileURL       string     `json:"fileUrl,omitempty"`
	ArchiveURL    string     `json:"archiveUrl,omitempty"`
	Status        ClipStatus `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	Transcription string     `json:"transcription,omitempty"` // JSON caption variants
	ViralityScore float64    `json:"viralityScore"`
	SourceTexts   []string   `json:"sourceTexts,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Post is a completed or attempted social media post for a clip.
type Post struct {
	ID             string     `json:"id"`
	ClipID         string     `json:"clipId"`
	Platform       Platform   `json:"platform"`
	Status         PostStatus `json:"status"`
	Caption        string     `json:"caption,omitempty"`
	PostURL        string     `json:"postUrl,omitempty"`
	PlatformPostID string     `json:"platformPostId,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	PostedAt       *time.Time `json:"postedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
