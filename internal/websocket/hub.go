package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/clipforge/api/internal/logger"
	"github.com/clipforge/api/internal/model"
)

// Client is one connected watcher of an asset
type Client struct {
	conn    *websocket.Conn
	assetID string
	send    chan []byte
}

// Hub routes pipeline progress messages to clients watching each
// asset. One hub serves the whole process.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage
	log        *logger.Logger
}

type broadcastMessage struct {
	assetID string
	data    []byte
}

// NewHub creates a new websocket hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMessage, 64),
		log:        log,
	}
}

// Run processes hub events. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.assetID] == nil {
				h.clients[client.assetID] = make(map[*Client]bool)
			}
			h.clients[client.assetID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.assetID]; ok {
				if clients[client] {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.assetID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients[msg.assetID] {
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer, drop the message.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// StageUpdate broadcasts a stage transition to the asset's watchers
func (h *Hub) StageUpdate(assetID string, stage int, status model.StageStatus, message string) {
	h.send(assetID, model.WSStageMessage{
		Type:        model.WSMessageTypeStage,
		AssetID:     assetID,
		Stage:       stage,
		StageName:   model.StageName(stage),
		StageStatus: status,
		Message:     message,
	})
}

// PipelineComplete broadcasts pipeline completion
func (h *Hub) PipelineComplete(assetID string) {
	h.send(assetID, model.WSCompleteMessage{
		Type:    model.WSMessageTypeComplete,
		AssetID: assetID,
	})
}

// PipelineFailed broadcasts a pipeline failure
func (h *Hub) PipelineFailed(assetID string, message string) {
	h.send(assetID, model.WSErrorMessage{
		Type:    model.WSMessageTypeError,
		AssetID: assetID,
		Error: model.WSError{
			Code:    "PIPELINE_FAILED",
			Message: message,
		},
	})
}

func (h *Hub) send(assetID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.WithComponent("websocket").WithError(err).Error("failed to marshal message")
		return
	}
	h.broadcast <- broadcastMessage{assetID: assetID, data: data}
}

// HandleConnection serves one websocket client until it disconnects
func (h *Hub) HandleConnection(conn *websocket.Conn, assetID string) {
	client := &Client{
		conn:    conn,
		assetID: assetID,
		send:    make(chan []byte, 16),
	}
	h.register <- client

	done := make(chan struct{})

	// Writer: hub messages plus keepalive pings.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case data, ok := <-client.send:
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Reader: consume control frames and client pings.
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var parsed model.WSMessage
		if err := json.Unmarshal(msg, &parsed); err == nil && parsed.Type == model.WSMessageTypePing {
			pong, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			select {
			case client.send <- pong:
			default:
			}
		}
	}

	close(done)
	h.unregister <- client
}
