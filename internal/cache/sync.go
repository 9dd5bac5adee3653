package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"research-rag/internal/db"
)

// SyncWorker periodically copies cached conversations into the relational
// store so they survive cache expiry.
type SyncWorker struct {
	store    *Store
	database *bun.DB
	interval time.Duration
}

func NewSyncWorker(store *Store, database *bun.DB, interval time.Duration) *SyncWorker {
	return &SyncWorker{store: store, database: database, interval: interval}
}

// Run loops until the context is cancelled. A failed sync round is logged
// and retried on the next tick; it never stops the worker.
func (w *SyncWorker) Run(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting conversation sync worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Conversation sync worker stopped")
			return
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil {
				log.Error().Err(err).Msg("Conversation sync round failed")
			}
		}
	}
}

// SyncOnce copies every cached conversation into the store.
func (w *SyncWorker) SyncOnce(ctx context.Context) error {
	conversations, err := w.store.All(ctx)
	if err != nil {
		return err
	}

	synced := 0
	for _, conv := range conversations {
		history, err := json.Marshal(conv.History)
		if err != nil {
			log.Warn().Err(err).Str("conversation", conv.RedisConversationID).Msg("Skipping conversation with unmarshalable history")
			continue
		}

		title := conv.ConversationName
		if title == "" {
			title = TitleFromHistory(conv.History)
		}

		record := &db.Conversation{
			RedisConversationID: conv.RedisConversationID,
			UserID:              conv.UserID,
			Title:               title,
			History:             history,
			LastUpdated:         conv.LastUpdated,
		}
		if err := db.UpsertConversation(ctx, w.database, record); err != nil {
			log.Error().Err(err).Str("conversation", conv.RedisConversationID).Msg("Failed to sync conversation")
			continue
		}
		synced++
	}

	log.Debug().Int("synced", synced).Int("total", len(conversations)).Msg("Conversation sync round complete")
	return nil
}
