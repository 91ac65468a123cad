package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"homesite/internal/site"
	"homesite/pkg/logger"
	"homesite/socket"
	"homesite/store"

	"github.com/gorilla/websocket"
)

const (
	subscribeTimeout = 10 * time.Second
	closeWait        = time.Second
)

// Realtime joins the backend's websocket channels.
type Realtime struct {
	wsURL  string
	key    string
	dialer *websocket.Dialer
}

// NewRealtime derives the websocket endpoint from the store's base URL.
func NewRealtime(baseURL, key string) *Realtime {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return &Realtime{
		wsURL:  base + "/realtime/v1/websocket",
		key:    key,
		dialer: websocket.DefaultDialer,
	}
}

// channel is one subscribed websocket. Close does not wait for the reader.
type channel struct {
	conn *websocket.Conn
	once sync.Once
	done chan struct{}
}

func (ch *channel) Close() error {
	var err error
	ch.once.Do(func() {
		close(ch.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		ch.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		err = ch.conn.Close()
	})
	return err
}

func (ch *channel) closed() bool {
	select {
	case <-ch.done:
		return true
	default:
		return false
	}
}

// WatchInserts subscribes to rows inserted into table. It returns once the
// backend confirms the subscription.
func (r *Realtime) WatchInserts(ctx context.Context, table string, onInsert func(record json.RawMessage)) (site.Subscription, error) {
	ch, err := r.subscribe(ctx, table, "")
	if err != nil {
		return nil, err
	}

	go ch.read(func(msg socket.WSMessage) {
		if msg.Type != socket.InsertType {
			return
		}
		var ev store.InsertEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			logger.Sugar.Warnf("Dropping unreadable insert on %s: %v", table, err)
			return
		}
		if ev.Table == table {
			onInsert(ev.Record)
		}
	})
	return ch, nil
}

// JoinPresence joins the online-users channel under key, tracks meta once
// subscribed and reports the tracked keys on every sync.
func (r *Realtime) JoinPresence(ctx context.Context, key string, meta any, onSync func(keys []string)) (site.Subscription, error) {
	ch, err := r.subscribe(ctx, socket.TopicOnlineUsers, key)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("encode presence meta: %w", err)
	}
	frame, _ := json.Marshal(socket.WSMessage{Type: socket.TrackType, Topic: socket.TopicOnlineUsers, Payload: payload})
	ch.conn.SetWriteDeadline(time.Now().Add(subscribeTimeout))
	if err := ch.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		ch.Close()
		return nil, fmt.Errorf("track presence: %w", err)
	}

	go ch.read(func(msg socket.WSMessage) {
		if msg.Type != socket.PresenceSyncType {
			return
		}
		var state map[string]json.RawMessage
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			logger.Sugar.Warnf("Dropping unreadable presence sync: %v", err)
			return
		}
		keys := make([]string, 0, len(state))
		for k := range state {
			keys = append(keys, k)
		}
		onSync(keys)
	})
	return ch, nil
}

func (r *Realtime) subscribe(ctx context.Context, topic, key string) (*channel, error) {
	q := url.Values{"topic": {topic}, "apikey": {r.key}}
	if key != "" {
		q.Set("key", key)
	}

	conn, resp, err := r.dialer.DialContext(ctx, r.wsURL+"?"+q.Encode(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("join %s: %w", topic, &APIError{Status: resp.StatusCode, Message: err.Error()})
		}
		return nil, fmt.Errorf("join %s: %w", topic, err)
	}

	deadline := time.Now().Add(subscribeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)

	var ack socket.WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w", topic, err)
	}
	if ack.Type != socket.SubscribedType {
		conn.Close()
		return nil, fmt.Errorf("join %s: expected %s, got %q", topic, socket.SubscribedType, ack.Type)
	}
	conn.SetReadDeadline(time.Time{})

	return &channel{conn: conn, done: make(chan struct{})}, nil
}

func (ch *channel) read(handle func(socket.WSMessage)) {
	for {
		var msg socket.WSMessage
		if err := ch.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				continue
			}
			if !ch.closed() {
				logger.Sugar.Warnf("Realtime channel dropped: %v", err)
			}
			return
		}
		if ch.closed() {
			return
		}
		handle(msg)
	}
}
