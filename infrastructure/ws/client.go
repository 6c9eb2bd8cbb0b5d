package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"message-room/contract"
	"message-room/sink"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client owns one websocket connection: the read pump turns frames into
// coordinator actions, the write pump drains the session's sink. Teardown
// runs exactly once no matter how many paths signal closure.
type Client struct {
	log          *slog.Logger
	conn         *websocket.Conn
	coordinator  contract.ICoordinator
	sink         *sink.Channel
	connectionID string
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

func NewClient(log *slog.Logger, conn *websocket.Conn,
	coordinator contract.ICoordinator, bufferSize int) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		log:         log,
		conn:        conn,
		coordinator: coordinator,
		sink:        sink.NewChannel(bufferSize),
	}
}

// Serve registers the session and blocks until the connection dies.
func (c *Client) Serve(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.connectionID = c.coordinator.Connect(ctx, c.sink)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writePump(ctx)
	}()
	go func() {
		defer wg.Done()
		c.readPump(ctx)
	}()
	wg.Wait()
}

// close tears the session down. The sync.Once is what makes a duplicate
// close signal (read error racing a write error) a no-op: presence is
// decremented exactly once per connection.
func (c *Client) close(_ context.Context) {
	c.closeOnce.Do(func() {
		// A fresh context: teardown notifications must go out even though
		// this connection's own context is already canceled.
		c.coordinator.Disconnect(context.Background(), c.connectionID)
		c.cancel()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Debug("Connection close failed", "connection_id", c.connectionID, "error", err)
		}
	})
}

func (c *Client) readPump(ctx context.Context) {
	defer c.close(ctx)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		var action Inbound
		if err := json.Unmarshal(raw, &action); err != nil {
			c.log.Debug("Malformed frame", "connection_id", c.connectionID, "error", err)
			continue
		}
		c.dispatch(ctx, action)
	}
}

// dispatch routes one client action. Action errors were already reported to
// the caller by the coordinator; the connection stays open.
func (c *Client) dispatch(ctx context.Context, action Inbound) {
	switch action.Method {
	case MethodJoinChat:
		_ = c.coordinator.JoinChat(ctx, c.connectionID, action.Username)
	case MethodSendMessage:
		_ = c.coordinator.SendMessage(ctx, c.connectionID, action.Content)
	case MethodGetChatHistory:
		_ = c.coordinator.GetChatHistory(ctx, c.connectionID)
	default:
		c.log.Debug("Unknown method", "connection_id", c.connectionID, "method", action.Method)
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.close(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-c.sink.Events:
			payload, err := EncodeEvent(e)
			if err != nil {
				c.log.Error("Event encoding failed", "kind", e.Kind(), "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("Write failed", "connection_id", c.connectionID, "error", err)
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

func (c *Client) logReadError(err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Debug("Client disconnected", "connection_id", c.connectionID)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		c.log.Debug("Connection closed", "connection_id", c.connectionID)
	default:
		c.log.Warn("Read failed", "connection_id", c.connectionID, "error", err)
	}
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
