package session

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ControlMessage is a client → server control message.
type ControlMessage struct {
	Action  string   `json:"action"`
	Targets []string `json:"targets,omitempty"`
}

// ackMessage answers a control message.
type ackMessage struct {
	Type    string   `json:"type"`
	Targets []string `json:"targets"`
	All     bool     `json:"all,omitempty"`
}

// Handler creates the HTTP handler for WebSocket upgrades. Clients may
// name initial targets with ?target=a&target=b.
func Handler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			mgr.log.Warn("websocket upgrade failed", "err", err)
			return
		}

		client := mgr.Register(conn)
		if initial := r.URL.Query()["target"]; len(initial) > 0 {
			HandleControl(client, mgr, &ControlMessage{Action: "subscribe", Targets: initial})
		}

		go writePump(client)
		go readPump(client, mgr)
	}
}

// readPump processes incoming control messages from the client.
func readPump(c *Client, mgr *Manager) {
	defer mgr.Unregister(c)

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				mgr.log.Warn("display read failed", "client", c.ID, "err", err)
			}
			return
		}

		var ctrl ControlMessage
		if err := json.Unmarshal(message, &ctrl); err != nil {
			mgr.log.Warn("invalid control message", "client", c.ID, "err", err)
			continue
		}

		HandleControl(c, mgr, &ctrl)
	}
}

// HandleControl applies a parsed control message to c and queues the
// acknowledgement.
func HandleControl(c *Client, mgr *Manager, ctrl *ControlMessage) {
	switch ctrl.Action {
	case "subscribe":
		added := c.Subscribe(ctrl.Targets)
		mgr.log.Info("display subscribed", "client", c.ID, "targets", ctrl.Targets)
		ack(c, "subscribed")
		if c.IsAllSubscribed() {
			mgr.Replay(c, nil)
		} else {
			mgr.Replay(c, added)
		}

	case "unsubscribe":
		c.Unsubscribe(ctrl.Targets)
		mgr.log.Info("display unsubscribed", "client", c.ID, "targets", ctrl.Targets)
		ack(c, "unsubscribed")

	case "list":
		send(c, ackMessage{Type: "targets", Targets: mgr.Targets()})

	default:
		mgr.log.Warn("unknown control action", "client", c.ID, "action", ctrl.Action)
	}
}

func ack(c *Client, typ string) {
	targets := c.Targets()
	if targets == nil {
		targets = []string{}
	}
	send(c, ackMessage{Type: typ, Targets: targets, All: c.IsAllSubscribed()})
}

func send(c *Client, msg any) {
	if data, err := json.Marshal(msg); err == nil {
		c.Send(data)
	}
}

// writePump sends messages from the send channel to the WebSocket.
func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.SendCh():
			if !ok {
				return
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Done():
			return
		}
	}
}
