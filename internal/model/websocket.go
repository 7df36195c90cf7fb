package model

// WebSocket message types
const (
	WSMessageTypeStage    = "stage"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSStageMessage represents a stage transition update
type WSStageMessage struct {
	Type        string      `json:"type"`
	AssetID     string      `json:"assetId"`
	Stage       int         `json:"stage"`
	StageName   string      `json:"stageName"`
	StageStatus StageStatus `json:"stageStatus"`
	Message     string      `json:"message,omitempty"`
}

// WSCompleteMessage represents pipeline completion
type WSCompleteMessage struct {
	Type    string      `json:"type"`
	AssetID string      `json:"assetId"`
	Result  interface{} `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type    string  `json:"type"`
	AssetID string  `json:"assetId"`
	Error   WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
