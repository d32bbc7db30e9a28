package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

// client is one stream connection. It observes the feeds it subscribed to
// and, when asked, the event tracker. The send channel is never closed;
// done marks the end of the connection.
type client struct {
	id      id.ClientID
	handler *Handler
	conn    *websocket.Conn
	send    chan Message
	done    chan struct{}

	closeOnce sync.Once
	dropped   atomic.Int64

	mu        sync.Mutex
	feeds     map[bridge.FeedName]id.SubscriptionID
	eventsSub id.SubscriptionID
}

// IsActive keeps subscribed feeds polled while the client is connected.
func (cl *client) IsActive() bool {
	select {
	case <-cl.done:
		return false
	default:
		return true
	}
}

func (cl *client) OnFeedUpdate(feed bridge.FeedName, value any) {
	cl.enqueue(Message{Type: TypeFeed, Feed: feed, Value: value})
}

func (cl *client) OnReceivedLogEntries(entries []events.Entry) {
	cl.enqueue(Message{Type: TypeEvents, Entries: entries})
}

func (cl *client) OnAllEntriesDeleted() {
	cl.enqueue(Message{Type: TypeEventsCleared})
}

// enqueue never blocks; a client that cannot keep up loses messages.
func (cl *client) enqueue(msg Message) {
	if !cl.IsActive() {
		return
	}
	msg.Timestamp = time.Now().UnixMilli()
	select {
	case cl.send <- msg:
	default:
		cl.dropped.Add(1)
	}
}

func (cl *client) readPump() {
	cl.conn.SetReadLimit(1 << 20)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req Request
		if err := cl.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.handler.logger.Debug("Stream read ended", zap.String("client_id", string(cl.id)), zap.Error(err))
			}
			return
		}
		cl.handle(req)
	}
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteJSON(msg); err != nil {
				cl.conn.Close()
				return
			}
		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cl.conn.Close()
				return
			}
		}
	}
}

func (cl *client) handle(req Request) {
	h := cl.handler
	switch req.Type {
	case RequestSubscribe:
		cl.subscribe(req.Feeds, req.NotifyOnlyOnChange)
		// Fresh subscribers should not wait a full poll interval.
		h.bridge.CheckForUpdatedInfo(false)
		cl.enqueue(Message{Type: TypeAck})

	case RequestUnsubscribe:
		cl.unsubscribe(req.Feeds)
		cl.enqueue(Message{Type: TypeAck})

	case RequestCommand:
		cmd, err := bridge.ParseCommand(req.Command)
		if err == nil {
			err = h.bridge.Send(cmd, req.Args...)
		}
		if err != nil {
			cl.enqueue(Message{Type: TypeError, Error: err.Error()})
			return
		}
		cl.enqueue(Message{Type: TypeAck, Command: cmd})

	case RequestEvents:
		cl.watchEvents(req.Enabled)
		cl.enqueue(Message{Type: TypeAck})

	case RequestPing:
		cl.enqueue(Message{Type: TypePong})

	default:
		cl.enqueue(Message{Type: TypeError, Error: "unknown message type: " + req.Type})
	}
}

func (cl *client) subscribe(feeds []bridge.FeedName, notifyOnlyOnChange bool) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for _, feed := range feeds {
		if _, ok := cl.feeds[feed]; ok {
			continue
		}
		subID, err := cl.handler.bridge.Observe(feed, cl, notifyOnlyOnChange)
		if err != nil {
			cl.enqueue(Message{Type: TypeError, Feed: feed, Error: err.Error()})
			continue
		}
		cl.feeds[feed] = subID
	}
}

func (cl *client) unsubscribe(feeds []bridge.FeedName) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if len(feeds) == 0 {
		for feed := range cl.feeds {
			feeds = append(feeds, feed)
		}
	}
	for _, feed := range feeds {
		if subID, ok := cl.feeds[feed]; ok {
			cl.handler.bridge.StopObserving(feed, subID)
			delete(cl.feeds, feed)
		}
	}
}

func (cl *client) watchEvents(enabled bool) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	switch {
	case enabled && cl.eventsSub == "":
		cl.eventsSub = cl.handler.tracker.Subscribe(cl)
	case !enabled && cl.eventsSub != "":
		cl.handler.tracker.Unsubscribe(cl.eventsSub)
		cl.eventsSub = ""
	}
}

func (cl *client) close() {
	cl.closeOnce.Do(func() {
		close(cl.done)
		cl.unsubscribe(nil)
		cl.watchEvents(false)
		_ = cl.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		cl.conn.Close()
	})
}
