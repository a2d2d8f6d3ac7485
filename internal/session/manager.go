package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ndrandal/simviz/internal/viz"
)

// renderMessage is pushed to displays subscribed to Target.
type renderMessage struct {
	Type     string             `json:"type"`
	Target   string             `json:"target"`
	ID       string             `json:"id,omitempty"`
	Kind     string             `json:"kind,omitempty"`
	Figure   *viz.Visualization `json:"figure"`
	Rendered time.Time          `json:"rendered"`
}

// Manager tracks connected displays and the last visualization rendered to
// each target. It implements viz.Renderer.
type Manager struct {
	mu         sync.RWMutex
	clients    map[uint64]*Client
	last       map[string][]byte // target -> encoded renderMessage
	bufferSize int
	log        *slog.Logger
}

// NewManager creates a display hub. A nil logger uses slog.Default().
func NewManager(bufferSize int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		clients:    make(map[uint64]*Client),
		last:       make(map[string][]byte),
		bufferSize: bufferSize,
		log:        logger,
	}
}

// Register adds a new client. Returns the client for further use.
func (m *Manager) Register(conn *websocket.Conn) *Client {
	c := NewClient(conn, m.bufferSize)

	m.mu.Lock()
	m.clients[c.ID] = c
	n := len(m.clients)
	m.mu.Unlock()

	connectedClients.Set(float64(n))
	if conn != nil {
		m.log.Info("display connected", "client", c.ID, "remote", conn.RemoteAddr().String())
	}
	return c
}

// Unregister removes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	n := len(m.clients)
	m.mu.Unlock()

	connectedClients.Set(float64(n))
	c.Close()
	m.log.Info("display disconnected", "client", c.ID, "dropped", atomic.LoadUint64(&c.Dropped))
}

// Render sends v to every client subscribed to target and keeps it as the
// target's current figure for clients that subscribe later.
func (m *Manager) Render(target string, v *viz.Visualization) error {
	data, err := json.Marshal(renderMessage{
		Type:     "render",
		Target:   target,
		ID:       v.ID,
		Kind:     v.Kind.String(),
		Figure:   v,
		Rendered: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", target, err)
	}

	m.mu.Lock()
	m.last[target] = data
	m.mu.Unlock()

	m.Broadcast(target, data)
	return nil
}

// Broadcast sends data to every client subscribed to target. It returns
// the number of clients the message was queued for.
func (m *Manager) Broadcast(target string, data []byte) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent := 0
	for _, c := range m.clients {
		if !c.IsSubscribed(target) {
			continue
		}
		if c.Send(data) {
			sent++
		}
	}
	return sent
}

// Replay sends the current figure of each target to c. A nil targets
// replays every known target.
func (m *Manager) Replay(c *Client, targets []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if targets == nil {
		targets = m.targetsLocked()
	}
	for _, t := range targets {
		if data, ok := m.last[t]; ok {
			c.Send(data)
		}
	}
}

// Targets returns every target that has been rendered to, sorted.
func (m *Manager) Targets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.targetsLocked()
}

func (m *Manager) targetsLocked() []string {
	out := make([]string, 0, len(m.last))
	for t := range m.last {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
