// Package cache keeps active conversations in Redis and syncs them to the
// relational store in the background. Clients are constructed at process
// start and injected; there are no package-level singletons.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"research-rag/internal/config"
	"research-rag/internal/models"
)

const keyPrefix = "current_conv:"

// Store is a Redis-backed conversation cache with per-entry TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(cfg config.RedisConfig) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: time.Duration(cfg.TTLSeconds) * time.Second,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func conversationKey(userID, conversationID string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, userID, conversationID)
}

// SaveConversation writes the conversation under its user-scoped key,
// refreshing the TTL and the last-updated timestamp.
func (s *Store) SaveConversation(ctx context.Context, data models.ConversationData) error {
	data.LastUpdated = time.Now().UTC()
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	key := conversationKey(data.UserID, data.ConversationID)
	if err := s.rdb.SetEx(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving conversation %s: %w", key, err)
	}
	return nil
}

// GetConversation loads a cached conversation. A missing key returns
// (nil, nil), not an error.
func (s *Store) GetConversation(ctx context.Context, userID, conversationID string) (*models.ConversationData, error) {
	raw, err := s.rdb.Get(ctx, conversationKey(userID, conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data models.ConversationData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding conversation: %w", err)
	}
	return &data, nil
}

// All scans every cached conversation. Entries that fail to decode are
// skipped with a warning rather than aborting the scan.
func (s *Store) All(ctx context.Context) ([]models.ConversationData, error) {
	var out []models.ConversationData

	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var data models.ConversationData
		if err := json.Unmarshal(raw, &data); err != nil {
			log.Warn().Err(err).Str("key", iter.Val()).Msg("Skipping undecodable conversation")
			continue
		}
		out = append(out, data)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TitleFromHistory derives a conversation title from the first user message,
// truncated to 50 characters.
func TitleFromHistory(history []models.Message) string {
	for _, msg := range history {
		if msg.Role != "user" || msg.Content == "" {
			continue
		}
		if len(msg.Content) > 50 {
			cut := 50
			for cut > 0 && !utf8.RuneStart(msg.Content[cut]) {
				cut--
			}
			return msg.Content[:cut] + "..."
		}
		return msg.Content
	}
	return "Untitled Conversation"
}
