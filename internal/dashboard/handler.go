package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/rotacal/rotacal/internal/engine"
)

// Handler bridges engine events to the WebSocket server. It implements
// engine.Notifier, relays every event verbatim and maintains rolling
// statistics that are rebroadcast after each event.
type Handler struct {
	server *Server
	logger *log.Logger

	mu    sync.Mutex
	stats StatsData
}

// NewHandler creates an event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
	}
}

// Notify implements engine.Notifier.
func (h *Handler) Notify(ev engine.Event) {
	h.mu.Lock()
	switch ev.Type {
	case engine.EventFetchMerged:
		h.stats.FetchesMerged++
	case engine.EventFetchSkipped:
		h.stats.FetchesSkipped++
	case engine.EventSaved:
		h.stats.Saves++
	case engine.EventDeleted:
		h.stats.Deletes++
	case engine.EventSyncError:
		h.stats.Errors++
		h.stats.LastError = ev.Detail
	}
	h.stats.LastActivity = ev.Timestamp
	stats := h.stats
	h.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Printf("Failed to marshal event: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeSyncEvent,
		Timestamp: ev.Timestamp,
		Data:      data,
	})

	h.broadcastStats(stats)
}

// Stats returns a copy of the rolling statistics.
func (h *Handler) Stats() StatsData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// broadcastStats sends the current statistics to all clients
func (h *Handler) broadcastStats(stats StatsData) {
	data, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      data,
	})
}
