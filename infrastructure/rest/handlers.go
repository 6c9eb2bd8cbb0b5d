// Package rest serves the read-only query surface: history, user directory,
// search, and server stats. Nothing here mutates state.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"message-room/domain"
	"message-room/observability"
	"message-room/repositories"
	"message-room/search"
)

type Handlers struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	index    *search.MessageIndex
	stats    *observability.StatsManager
}

func NewHandlers(log *slog.Logger, messages repositories.IMessageRepository,
	users repositories.IUserRepository, index *search.MessageIndex,
	stats *observability.StatsManager) *Handlers {
	return &Handlers{log: log, messages: messages, users: users, index: index, stats: stats}
}

// Register mounts every query route on the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/chat/messages", h.listMessages)
	mux.HandleFunc("GET /api/chat/users", h.listUsers)
	mux.HandleFunc("GET /api/chat/user-count", h.userCount)
	mux.HandleFunc("GET /api/chat/search", h.searchMessages)
	mux.HandleFunc("GET /api/system/stats", h.systemStats)
	mux.HandleFunc("GET /health", h.health)
}

type messageResponse struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (h *Handlers) listMessages(w http.ResponseWriter, _ *http.Request) {
	messages, err := h.messages.GetMessages()
	if err != nil {
		h.fail(w, "listing messages", err)
		return
	}
	h.respond(w, lo.Map(messages, func(item domain.Message, _ int) messageResponse {
		return messageResponse{
			ID:        item.ID,
			Username:  item.Username,
			Content:   item.Content,
			Timestamp: item.At.Format(domain.WireTimestamp),
		}
	}))
}

type userResponse struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	JoinedAt string `json:"joinedAt"`
}

func (h *Handlers) listUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := h.users.ListAll()
	if err != nil {
		h.fail(w, "listing users", err)
		return
	}
	h.respond(w, lo.Map(users, func(item domain.User, _ int) userResponse {
		return userResponse{
			ID:       item.ID,
			Username: item.Username,
			JoinedAt: item.JoinedAt.Format(domain.WireTimestamp),
		}
	}))
}

// userCount reports how many distinct usernames ever joined. It can exceed
// the live broadcast count once users disconnect; the two are different
// measures on purpose.
func (h *Handlers) userCount(w http.ResponseWriter, _ *http.Request) {
	count, err := h.users.Count()
	if err != nil {
		h.fail(w, "counting users", err)
		return
	}
	h.respond(w, struct {
		Count int `json:"count"`
	}{count})
}

func (h *Handlers) searchMessages(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	query := search.NewQuery(raw)
	if query.Terms == "" {
		http.Error(w, "missing search terms", http.StatusBadRequest)
		return
	}
	results, err := h.index.Search(r.Context(), query)
	if err != nil {
		h.fail(w, "searching messages", err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	h.respond(w, results)
}

func (h *Handlers) systemStats(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, h.stats.GetLatest())
}

func (h *Handlers) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("message-room server is running"))
}

func (h *Handlers) respond(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("Response write failed", "error", err)
	}
}

func (h *Handlers) fail(w http.ResponseWriter, action string, err error) {
	h.log.Error("Query failed", "action", action, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
