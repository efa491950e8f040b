package notifier

import (
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket subscriber connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	channels map[string]bool
}

type clientMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel,omitempty"`
}

// ServeWs upgrades the request and starts the client pumps. Clients then
// drive their subscriptions with {"action":"subscribe","channel":"game:g1"}.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	if !hub.CanAccept() {
		http.Error(w, "server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		channels: make(map[string]bool),
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Drop(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// Drain anything already queued into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg clientMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		c.sendEvent(newErrorEvent("invalid message format"))
		return
	}

	switch msg.Action {
	case "subscribe":
		c.handleSubscribe(msg.Channel)
	case "unsubscribe":
		c.handleUnsubscribe(msg.Channel)
	case "ping":
		c.sendEvent(newStatusEvent("pong"))
	default:
		c.sendEvent(newErrorEvent("unknown action " + msg.Action))
	}
}

func (c *Client) handleSubscribe(channel string) {
	if !validChannel(channel) {
		c.sendEvent(newErrorEvent("channel must be player:<id>, game:<id> or team:<id>"))
		return
	}
	c.channels[channel] = true
	c.hub.Subscribe(c, channel)
	c.sendEvent(newStatusEvent("subscribed to " + channel))
}

func (c *Client) handleUnsubscribe(channel string) {
	if !c.channels[channel] {
		return
	}
	delete(c.channels, channel)
	c.hub.Unsubscribe(c, channel)
	c.sendEvent(newStatusEvent("unsubscribed from " + channel))
}

func (c *Client) sendEvent(event Event) {
	data, err := encodeEvent(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func validChannel(channel string) bool {
	prefix, id, found := strings.Cut(channel, ":")
	if !found || id == "" {
		return false
	}
	switch prefix {
	case "player", "game", "team":
		return true
	default:
		return false
	}
}
