package workers

import (
	"context"
	"log/slog"

	"message-room/domain"
	"message-room/observability"
	"message-room/search"
)

// Indexer feeds stored messages into the full-text index, off the send
// path. History and live delivery never wait on indexing.
type Indexer struct {
	log    *slog.Logger
	stored <-chan domain.Message
	index  *search.MessageIndex
	stats  *observability.StatsManager
}

func NewIndexer(log *slog.Logger, stored <-chan domain.Message,
	index *search.MessageIndex, stats *observability.StatsManager) *Indexer {
	return &Indexer{log: log, stored: stored, index: index, stats: stats}
}

func (w *Indexer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping message indexing")
			return nil
		case message := <-w.stored:
			if err := w.index.Index(message); err != nil {
				w.log.Error("Indexing message failed", "id", message.ID, "error", err)
				continue
			}
			w.stats.IncrMessagesIndexed()
		}
	}
}
