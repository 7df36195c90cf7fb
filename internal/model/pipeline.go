package model

import "time"

// IngestYouTubeRequest is the body for POST /api/assets/youtube
type IngestYouTubeRequest struct {
	URL   string `json:"url" validate:"required,url"`
	Title string `json:"title,omitempty" validate:"omitempty,max=300"`
}

// IngestResponse is returned after an asset is created
type IngestResponse struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Status  ContentStatus `json:"status"`
	Message string        `json:"message"`
}

// AssetResponse is the full asset view with its clips
type AssetResponse struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	SourceURL    string        `json:"sourceUrl"`
	Status       ContentStatus `json:"status"`
	Stage        int           `json:"stage"`
	StageStatus  StageStatus   `json:"stageStatus"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	Clips        []Clip        `json:"clips,omitempty"`
}

// StageDetail is one stage's projection in the pipeline status view
type StageDetail struct {
	StageNumber   int         `json:"stageNumber"`
	StageName     string      `json:"stageName"`
	Status        StageStatus `json:"status"`
	ErrorMessage  string      `json:"errorMessage,omitempty"`
	ResultSummary string      `json:"resultSummary,omitempty"`
}

// PipelineStatusResponse is returned by GET /api/pipeline/:assetId/status
type PipelineStatusResponse struct {
	AssetID          string        `json:"assetId"`
	Title            string        `json:"title"`
	OverallStatus    ContentStatus `json:"overallStatus"`
	CurrentStage     int           `json:"currentStage"`
	CurrentStageName string        `json:"currentStageName"`
	Stages           []StageDetail `json:"stages"`
	ErrorMessage     string        `json:"errorMessage,omitempty"`
}

// AdvanceResponse is returned by POST /api/pipeline/:assetId/advance
type AdvanceResponse struct {
	AssetID         string      `json:"assetId"`
	StageAdvancedTo int         `json:"stageAdvancedTo"`
	StageName       string      `json:"stageName"`
	Status          StageStatus `json:"status"`
	Message         string      `json:"message"`
}
