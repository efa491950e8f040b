package notifier

import (
	"context"
	"sync"

	"github.com/statforge/statengine/internal/domain/stats"
	"github.com/statforge/statengine/internal/platform/logging"
	"github.com/statforge/statengine/internal/platform/metrics"
)

// Hub fans persisted metric sets out to WebSocket subscribers. Each
// subscriber holds a bounded send buffer; one that stops draining is
// disconnected rather than allowed to stall the broadcast path.
type Hub struct {
	mu            sync.RWMutex
	clients       map[*Client]bool
	subscriptions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	metrics        *metrics.Metrics
	logger         *logging.Logger
	maxConnections int
}

func NewHub(m *metrics.Metrics, logger *logging.Logger, maxConnections int) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	if maxConnections <= 0 {
		maxConnections = 1000
	}
	return &Hub{
		clients:        make(map[*Client]bool),
		subscriptions:  make(map[string]map[*Client]bool),
		register:       make(chan *Client, 256),
		unregister:     make(chan *Client, 256),
		metrics:        m,
		logger:         logger,
		maxConnections: maxConnections,
	}
}

// Run drives client registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// PublishMetricSet emits one event per affected channel: the player's, the
// game's, and the team's when present. Called by the pipeline after every
// successful persistence write.
func (h *Hub) PublishMetricSet(_ context.Context, set stats.MetricSet) {
	channels := []string{
		PlayerChannel(set.PlayerID),
		GameChannel(set.GameID),
	}
	if set.TeamID != "" {
		channels = append(channels, TeamChannel(set.TeamID))
	}

	for _, channel := range channels {
		h.broadcast(channel, set)
	}
}

func (h *Hub) broadcast(channel string, set stats.MetricSet) {
	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.subscriptions[channel]))
	for client := range h.subscriptions[channel] {
		subscribers = append(subscribers, client)
	}
	h.mu.RUnlock()

	if len(subscribers) == 0 {
		return
	}

	data, err := encodeEvent(newMetricEvent(channel, set))
	if err != nil {
		h.logger.Error("encode notifier event failed", "channel", channel, "error", err)
		return
	}

	var slow []*Client
	for _, client := range subscribers {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}

	if h.metrics != nil {
		h.metrics.EventsPublished.Add(float64(len(subscribers) - len(slow)))
	}
	for _, client := range slow {
		h.logger.Warn("dropping slow subscriber", "channel", channel)
		h.Drop(client)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) >= h.maxConnections {
		h.logger.Warn("websocket connection rejected at capacity", "max_connections", h.maxConnections)
		if data, err := encodeEvent(newErrorEvent("server at capacity")); err == nil {
			client.send <- data
		}
		close(client.send)
		return
	}

	h.clients[client] = true
	if h.metrics != nil {
		h.metrics.Subscribers.Inc()
	}
	h.logger.Debug("websocket client connected", "total", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for channel := range h.subscriptions {
		delete(h.subscriptions[channel], client)
		if len(h.subscriptions[channel]) == 0 {
			delete(h.subscriptions, channel)
		}
	}
	close(client.send)
	if h.metrics != nil {
		h.metrics.Subscribers.Dec()
	}
	h.logger.Debug("websocket client disconnected", "total", len(h.clients))
}

// Drop queues the client for unregistration without blocking the caller.
func (h *Hub) Drop(client *Client) {
	select {
	case h.unregister <- client:
	default:
	}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscriptions[channel] == nil {
		h.subscriptions[channel] = make(map[*Client]bool)
	}
	h.subscriptions[channel][client] = true
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscriptions[channel] != nil {
		delete(h.subscriptions[channel], client)
		if len(h.subscriptions[channel]) == 0 {
			delete(h.subscriptions, channel)
		}
	}
}

func (h *Hub) CanAccept() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) < h.maxConnections
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
