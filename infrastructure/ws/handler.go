package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"message-room/contract"
	"message-room/observability"
)

// Handler upgrades HTTP requests to websocket sessions.
type Handler struct {
	log         *slog.Logger
	coordinator contract.ICoordinator
	stats       *observability.StatsManager
	bufferSize  int
	baseCtx     context.Context
	upgrader    websocket.Upgrader
}

// NewHandler wires the realtime endpoint. baseCtx bounds every connection's
// lifetime: canceling it (server shutdown) releases all sessions.
func NewHandler(baseCtx context.Context, log *slog.Logger, coordinator contract.ICoordinator,
	stats *observability.StatsManager, bufferSize int) *Handler {
	return &Handler{
		log:         log,
		coordinator: coordinator,
		stats:       stats,
		bufferSize:  bufferSize,
		baseCtx:     baseCtx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Single-process chat room, any origin may connect. Tighten
			// when a deployment fronts this with a domain.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "websocket endpoint only accepts GET", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.stats.IncrConnectionsOpened()
	client := NewClient(h.log, conn, h.coordinator, h.bufferSize)
	go func() {
		// The request handler returns immediately; the pumps own the
		// connection from here.
		client.Serve(h.baseCtx)
		h.stats.IncrConnectionsClosed()
	}()
}
