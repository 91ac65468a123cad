package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"homesite/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The public key check happens in middleware; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and joins the connection to the topic named by
// the "topic" query parameter. The optional "key" parameter is the presence
// key; a random one is assigned when it is missing.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if !KnownTopics[topic] {
		logger.Sugar.Warnf("Connection rejected: unknown topic %q", topic)
		http.Error(w, "Unknown topic", http.StatusBadRequest)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		key = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:   hub,
		Conn:  conn,
		Topic: topic,
		Key:   key,
		Send:  make(chan []byte, 256),
	}

	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		// Server-authoritative fields so a client cannot act for another key.
		msg.Topic = c.Topic
		msg.Key = c.Key

		switch msg.Type {
		case TrackType, UntrackType:
			c.Hub.Broadcast <- msg
		default:
			// Row events only come from the server.
			logger.Sugar.Warnf("Ignoring %q frame from client %s on %s", msg.Type, c.Key, c.Topic)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
