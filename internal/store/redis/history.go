// Package redis persists chat exchanges in Redis lists, one per session.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/scribe/internal/domain"
	"github.com/davidbz/scribe/internal/observability"
)

// HistoryStore implements domain.ChatHistoryStore.
//
// Keys:
//   - prefix+"session:"+id is a list of JSON exchanges, oldest first
//   - prefix+"sessions" is a sorted set of session ids scored by last activity
type HistoryStore struct {
	client redis.UniversalClient
	prefix string
	cfg    Config
}

// NewClient creates a Redis client and verifies the server is reachable.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// NewHistoryStore creates a history store (DI constructor).
func NewHistoryStore(client redis.UniversalClient, cfg Config) *HistoryStore {
	return &HistoryStore{
		client: client,
		prefix: cfg.HistoryPrefix,
		cfg:    cfg,
	}
}

func (s *HistoryStore) sessionKey(id string) string { return s.prefix + "session:" + id }
func (s *HistoryStore) indexKey() string            { return s.prefix + "sessions" }

// Append implements domain.ChatHistoryStore.
func (s *HistoryStore) Append(ctx context.Context, exchange *domain.ConversationExchange) error {
	if exchange == nil {
		return errors.New("exchange cannot be nil")
	}
	if exchange.SessionID == "" {
		return errors.New("session id cannot be empty")
	}

	payload, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	key := s.sessionKey(exchange.SessionID)

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if s.cfg.HistoryMaxEntries > 0 {
		pipe.LTrim(ctx, key, int64(-s.cfg.HistoryMaxEntries), -1)
	}
	if s.cfg.HistoryTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.HistoryTTL)
	}
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(exchange.CreatedAt.Unix()),
		Member: exchange.SessionID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}

	observability.FromContext(ctx).Debug("exchange persisted",
		observability.String("key", key))

	return nil
}
