package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the wire frame sent to connected clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketHandler struct {
	logger            arbor.ILogger
	clients           map[*websocket.Conn]bool
	clientMutex       map[*websocket.Conn]*sync.Mutex
	mu                sync.RWMutex
	eventService      interfaces.EventService
	progressThrottler *rate.Limiter   // Rate limiter for scrape_progress events
	allowedEvents     map[string]bool // Whitelist of events to broadcast (empty = allow all)
	serverInstanceID  string          // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		serverInstanceID: uuid.New().String(),
	}

	// Empty whitelist means allow all events
	h.allowedEvents = make(map[string]bool)
	if config != nil && len(config.AllowedEvents) > 0 {
		for _, eventType := range config.AllowedEvents {
			h.allowedEvents[eventType] = true
		}
		logger.Debug().
			Int("allowed_events", len(h.allowedEvents)).
			Msg("Initialized event whitelist for WebSocketHandler")
	}

	// Nil throttler = no throttling
	if config != nil && config.ProgressThrottle != "" {
		if duration, err := time.ParseDuration(config.ProgressThrottle); err == nil {
			h.progressThrottler = rate.NewLimiter(rate.Every(duration), 1)
			logger.Debug().
				Str("interval", config.ProgressThrottle).
				Msg("Throttler initialized for scrape_progress events")
		} else {
			logger.Warn().
				Err(err).
				Str("interval", config.ProgressThrottle).
				Msg("Failed to parse progress throttle interval - throttler disabled")
		}
	}

	if eventService != nil {
		h.subscribeToScrapeEvents()
	}

	return h
}

// subscribeToScrapeEvents forwards session lifecycle events to clients
func (h *WebSocketHandler) subscribeToScrapeEvents() {
	forward := func(ctx context.Context, event interfaces.Event) error {
		h.broadcastEvent(event)
		return nil
	}

	for _, eventType := range []interfaces.EventType{
		interfaces.EventSessionStarted,
		interfaces.EventItemUploaded,
		interfaces.EventContactCompleted,
		interfaces.EventSessionCompleted,
		interfaces.EventSessionFailed,
		interfaces.EventScrapeProgress,
	} {
		if err := h.eventService.Subscribe(eventType, forward); err != nil {
			h.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to subscribe to event")
		}
	}
}

// broadcastEvent sends an event to all connected clients, applying the
// whitelist and the progress throttler.
func (h *WebSocketHandler) broadcastEvent(event interfaces.Event) {
	eventType := string(event.Type)

	if len(h.allowedEvents) > 0 && !h.allowedEvents[eventType] {
		return
	}

	if event.Type == interfaces.EventScrapeProgress && h.progressThrottler != nil {
		if !h.progressThrottler.Allow() {
			return
		}
	}

	msg := WSMessage{
		Type:    eventType,
		Payload: event.Payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal event message")
		return
	}

	h.writeToAll(data)
}

// writeToAll delivers a frame to every client, serialized per connection
func (h *WebSocketHandler) writeToAll(data []byte) {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send event to client")
		}
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until the
// client disconnects.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", len(h.clients))

	h.sendHello(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		clientCount := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", clientCount)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// sendHello tells a fresh client which server instance it is talking to.
// Clients clear cached state when the instance ID changes.
func (h *WebSocketHandler) sendHello(conn *websocket.Conn) {
	msg := WSMessage{
		Type: "hello",
		Payload: map[string]string{
			"serverInstanceId": h.serverInstanceID,
			"version":          common.GetVersion(),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal hello message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()
	if mutex == nil {
		return
	}

	mutex.Lock()
	defer mutex.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send hello to client")
	}
}

// CloseAll disconnects every client during shutdown
func (h *WebSocketHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
	}
}
