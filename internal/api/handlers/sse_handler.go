package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/providers"
	"github.com/rs/zerolog/log"
)

// SSEHandler streams live search events over Server-Sent Events, fed by the
// event bus the analytics service publishes to.
type SSEHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.SearchEvent]bool // channel -> clients
	mu       sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.SearchEvent]bool),
	}
}

// setStreamHeaders marks the response as a server-sent event stream.
// X-Accel-Buffering stops nginx-style proxies from buffering the stream.
func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// StreamSearchEvents handles SSE connections for the global search event feed.
// GET /api/stream/search?term=X narrows the feed to terms with that prefix.
func (h *SSEHandler) StreamSearchEvents(w http.ResponseWriter, r *http.Request) {
	termPrefix := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("term")))

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	setStreamHeaders(w)

	// Create client channel
	clientChan := make(chan *entities.SearchEvent, 50)
	channel := providers.EventChannelSearchEvents

	// Register client
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	// Subscribe to events
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	// Send initial connection event
	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   channel,
		"term":      termPrefix,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan, termPrefix)

	h.serveEvents(w, r, flusher, clientChan, "search event stream")
}

// StreamSearchTypeEvents handles SSE connections scoped to one search type.
// GET /api/stream/search/{type}
func (h *SSEHandler) StreamSearchTypeEvents(w http.ResponseWriter, r *http.Request) {
	searchType := entities.SearchType(r.PathValue("type"))
	if !searchType.IsValid() {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unsupported search type: %q", searchType))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	setStreamHeaders(w)

	// Create client channel
	clientChan := make(chan *entities.SearchEvent, 10)
	channel := providers.GetSearchTypeChannel(searchType)

	// Register client
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	// Subscribe to events
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	// Send initial connection event
	h.sendEvent(w, "connected", map[string]interface{}{
		"search_type": searchType,
		"timestamp":   time.Now(),
	})
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan, "")

	h.serveEvents(w, r, flusher, clientChan, string(searchType)+" stream")
}

// serveEvents drains the client channel onto the wire with a heartbeat so
// idle connections are not reaped by intermediaries.
func (h *SSEHandler) serveEvents(w http.ResponseWriter, r *http.Request, flusher http.Flusher, clientChan <-chan *entities.SearchEvent, name string) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("stream", name).Msg("client disconnected")
			return
		case <-ticker.C:
			// Send heartbeat
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel,
// dropping events when the client cannot keep up. A non-empty termPrefix
// narrows the feed to search terms starting with it.
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.SearchEvent, clientChan chan<- *entities.SearchEvent, termPrefix string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if termPrefix != "" && !strings.HasPrefix(strings.ToLower(event.SearchTerm), termPrefix) {
				continue
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

// registerClient registers a client for a channel
func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.SearchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.SearchEvent]bool)
	}
	h.clients[channel][clientChan] = true
	log.Info().Str("channel", channel).Int("clients", len(h.clients[channel])).Msg("stream client connected")
}

// unregisterClient unregisters a client from a channel
func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.SearchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		log.Info().Str("channel", channel).Int("clients", len(clients)).Msg("stream client disconnected")

		// Clean up empty channel
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode stream event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients for debugging
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
