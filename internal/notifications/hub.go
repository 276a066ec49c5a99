package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"chirp/internal/middleware"
	"chirp/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	defaultMaxConnsPerUser = 12
	defaultMaxTotalConns   = 10000
)

var (
	ErrTotalConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit  = errors.New("user connection limit reached")
)

// Hub maps account IDs to their open websocket clients.
type Hub struct {
	mu           sync.RWMutex
	conns        map[uint]map[*Client]struct{}
	totalConns   int
	maxPerUser   int
	maxTotal     int
	shutdownOnce sync.Once
}

// NewHub creates a hub with the default connection limits.
func NewHub() *Hub {
	return NewHubWithLimits(defaultMaxConnsPerUser, defaultMaxTotalConns)
}

func NewHubWithLimits(maxPerUser, maxTotal int) *Hub {
	return &Hub{
		conns:      make(map[uint]map[*Client]struct{}),
		maxPerUser: maxPerUser,
		maxTotal:   maxTotal,
	}
}

// Register adds a connection for userID, enforcing per-user and total limits.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= h.maxTotal {
		return nil, ErrTotalConnLimit
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= h.maxPerUser {
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send buffer. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.totalConns--
	observability.WebSocketConnections.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast sends message to every connection of userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns[userID] {
		c.TrySend(data)
	}
}

// IsOnline reports whether userID has at least one open connection.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring forwards every user-channel message from n to that user's clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartUserSubscriber(ctx, func(channel, payload string) {
		userID, ok := ParseUserChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every client's send buffer; each WritePump then sends a
// close frame and drops its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.shutdownOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, clients := range h.conns {
			for client := range clients {
				close(client.Send)
				observability.WebSocketConnections.Dec()
			}
		}
		h.conns = make(map[uint]map[*Client]struct{})
		h.totalConns = 0
	})
	return nil
}
