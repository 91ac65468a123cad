package socket

import (
	"encoding/json"
	"sync"

	"homesite/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	SubscribedType   = "SUBSCRIBED"    // Sent to a client once it is registered
	PresenceSyncType = "PRESENCE_SYNC" // Full presence state of a topic
	InsertType       = "INSERT"        // A row was inserted into a watched table
	TrackType        = "TRACK"         // Client announces its presence
	UntrackType      = "UNTRACK"       // Client withdraws its presence

	TopicOnlineUsers = "online-users"
	TopicMessages    = "messages"
)

// KnownTopics lists the topics clients may subscribe to.
var KnownTopics = map[string]bool{
	TopicOnlineUsers: true,
	TopicMessages:    true,
}

type WSMessage struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Key     string          `json:"key,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	mu         sync.Mutex
	Presence   map[string]map[string]json.RawMessage // topic -> presence key -> meta
}

type Client struct {
	Hub   *Hub
	Conn  *websocket.Conn
	Topic string
	Key   string
	Send  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Presence:   make(map[string]map[string]json.RawMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.Topic] == nil {
				h.Rooms[client.Topic] = make(map[*Client]bool)
			}
			h.Rooms[client.Topic][client] = true
			h.mu.Unlock()

			ack, _ := json.Marshal(WSMessage{Type: SubscribedType, Topic: client.Topic, Key: client.Key})
			client.Send <- ack
			logger.Sugar.Debugf("Client %s subscribed to %s", client.Key, client.Topic)

		case client := <-h.Unregister:
			topic := client.Topic
			if h.removeClient(client) {
				h.broadcastPresenceSync(topic)
			}

		case msg := <-h.Broadcast:
			switch msg.Type {
			case TrackType:
				h.mu.Lock()
				// A client dropped for lagging may still have a TRACK in flight.
				if !h.keyStillConnected(msg.Topic, msg.Key) {
					h.mu.Unlock()
					continue
				}
				if h.Presence[msg.Topic] == nil {
					h.Presence[msg.Topic] = make(map[string]json.RawMessage)
				}
				h.Presence[msg.Topic][msg.Key] = msg.Payload
				h.mu.Unlock()
				h.broadcastPresenceSync(msg.Topic)
				continue

			case UntrackType:
				h.mu.Lock()
				_, tracked := h.Presence[msg.Topic][msg.Key]
				delete(h.Presence[msg.Topic], msg.Key)
				h.mu.Unlock()
				if tracked {
					h.broadcastPresenceSync(msg.Topic)
				}
				continue
			}

			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.Topic]))
			for client := range h.Rooms[msg.Topic] {
				if msg.Key == "" || client.Key != msg.Key {
					clientsToSend = append(clientsToSend, client)
				}
			}
			h.mu.Unlock()

			// Send outside of the lock.
			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// The client is lagging; drop it rather than block the hub.
					logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.Key)
					if h.removeClient(client) {
						h.broadcastPresenceSync(client.Topic)
					}
				}
			}
		}
	}
}

// Publish queues a server-originated event for every subscriber of topic.
func (h *Hub) Publish(topic, msgType string, payload json.RawMessage) {
	h.Broadcast <- WSMessage{Type: msgType, Topic: topic, Payload: payload}
}

// OnlineCount returns the number of distinct presence keys tracked on topic.
func (h *Hub) OnlineCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Presence[topic])
}

// removeClient drops client from its room and presence set and closes its
// send channel. It reports whether the topic's presence changed and the room
// still has members to tell. Safe to call more than once for the same client.
func (h *Hub) removeClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.Rooms[client.Topic][client]; !ok {
		return false
	}
	delete(h.Rooms[client.Topic], client)
	close(client.Send)

	_, tracked := h.Presence[client.Topic][client.Key]
	if tracked && !h.keyStillConnected(client.Topic, client.Key) {
		delete(h.Presence[client.Topic], client.Key)
	} else {
		tracked = false
	}

	if len(h.Rooms[client.Topic]) == 0 {
		delete(h.Rooms, client.Topic)
		delete(h.Presence, client.Topic)
		logger.Sugar.Debugf("Closed empty room: %s", client.Topic)
		return false
	}
	return tracked
}

// keyStillConnected reports whether another connection in topic shares key.
// Callers must hold h.mu.
func (h *Hub) keyStillConnected(topic, key string) bool {
	for c := range h.Rooms[topic] {
		if c.Key == key {
			return true
		}
	}
	return false
}

func (h *Hub) broadcastPresenceSync(topic string) {
	var state map[string]json.RawMessage
	var clientsToSend []*Client

	h.mu.Lock()
	state = make(map[string]json.RawMessage, len(h.Presence[topic]))
	for key, meta := range h.Presence[topic] {
		state[key] = meta
	}
	clientsToSend = make([]*Client, 0, len(h.Rooms[topic]))
	for client := range h.Rooms[topic] {
		clientsToSend = append(clientsToSend, client)
	}
	h.mu.Unlock()

	if len(clientsToSend) == 0 {
		return
	}

	payload, err := json.Marshal(state)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence sync: %v", err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: PresenceSyncType, Topic: topic, Payload: payload})

	for _, client := range clientsToSend {
		select {
		case client.Send <- msg:
		default:
			// The pumps deal with unresponsive clients.
			logger.Sugar.Warnf("Client %s's send buffer was full during presence sync.", client.Key)
		}
	}
}
