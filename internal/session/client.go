package session

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Wildcard subscribes a client to every display target.
const Wildcard = "*"

// Client represents a connected display.
type Client struct {
	ID   uint64
	Conn *websocket.Conn

	mu         sync.RWMutex
	targets    map[string]bool
	allTargets bool

	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// stats
	Dropped uint64
}

var clientIDCounter uint64

// NewClient creates a new client wrapping a WebSocket connection.
func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		ID:      atomic.AddUint64(&clientIDCounter, 1),
		Conn:    conn,
		targets: make(map[string]bool),
		sendCh:  make(chan []byte, bufferSize),
		done:    make(chan struct{}),
	}
}

// Subscribe adds targets. Wildcard subscribes to all of them. It returns
// the targets that were newly added.
func (c *Client) Subscribe(targets []string) (added []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range targets {
		if t == Wildcard {
			c.allTargets = true
			continue
		}
		if t != "" && !c.targets[t] {
			c.targets[t] = true
			added = append(added, t)
		}
	}
	return added
}

// Unsubscribe removes targets. Wildcard clears every subscription.
func (c *Client) Unsubscribe(targets []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range targets {
		if t == Wildcard {
			c.allTargets = false
			c.targets = make(map[string]bool)
			return
		}
		delete(c.targets, t)
	}
}

// IsSubscribed checks if the client displays target.
func (c *Client) IsSubscribed(target string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allTargets || c.targets[target]
}

// IsAllSubscribed returns true if the client is subscribed to all targets.
func (c *Client) IsAllSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allTargets
}

// Targets returns the subscribed targets in order, or nil when subscribed
// to all.
func (c *Client) Targets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allTargets {
		return nil
	}
	out := make([]string, 0, len(c.targets))
	for t := range c.targets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Send enqueues data to be sent to the client.
// Returns false if the buffer is full (message dropped).
func (c *Client) Send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		atomic.AddUint64(&c.Dropped, 1)
		droppedMessages.Inc()
		return false
	}
}

// SendCh returns the send channel for the write pump.
func (c *Client) SendCh() <-chan []byte {
	return c.sendCh
}

// Done returns a channel that is closed when the client is disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close terminates the client connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}
