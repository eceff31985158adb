package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps per-session draft tables in Redis so unsaved edits
// survive a crashed editor. Drafts expire after ttl.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements DraftStore interface
var _ storage.DraftStore = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis draft store. redisURL is either a
// redis:// URL or a bare host:port.
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
		ttl:    ttl,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func draftPrefix(session uuid.UUID) string {
	return "draft:" + session.String() + ":"
}

func draftKey(session uuid.UUID, kind asset.Kind) string {
	return draftPrefix(session) + string(kind)
}

// SaveDraft stores one table for the session and refreshes its expiry.
func (r *RedisStorage) SaveDraft(ctx context.Context, session uuid.UUID, kind asset.Kind, data []byte) error {
	key := draftKey(session, kind)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save draft", "session_id", session, "table", kind, "error", err)
		return fmt.Errorf("failed to save draft %s: %w", kind, err)
	}
	return nil
}

// LoadDraft returns a stored draft, or ErrTableNotFound.
func (r *RedisStorage) LoadDraft(ctx context.Context, session uuid.UUID, kind asset.Kind) ([]byte, error) {
	data, err := r.client.Get(ctx, draftKey(session, kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: draft %s", storage.ErrTableNotFound, kind)
		}
		return nil, fmt.Errorf("failed to load draft %s: %w", kind, err)
	}
	return data, nil
}

func (r *RedisStorage) draftKeys(ctx context.Context, session uuid.UUID) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, draftPrefix(session)+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan drafts: %w", err)
	}
	return keys, nil
}

// ListDrafts returns the tables drafted for the session in save order.
func (r *RedisStorage) ListDrafts(ctx context.Context, session uuid.UUID) ([]asset.Kind, error) {
	keys, err := r.draftKeys(ctx, session)
	if err != nil {
		return nil, err
	}
	found := make(map[asset.Kind]bool, len(keys))
	prefix := draftPrefix(session)
	for _, k := range keys {
		found[asset.Kind(strings.TrimPrefix(k, prefix))] = true
	}
	var out []asset.Kind
	for _, k := range asset.Tables {
		if found[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

// DiscardDrafts deletes every draft of the session.
func (r *RedisStorage) DiscardDrafts(ctx context.Context, session uuid.UUID) error {
	keys, err := r.draftKeys(ctx, session)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to discard drafts: %w", err)
	}
	r.logger.Debug("Discarded drafts", "session_id", session, "count", len(keys))
	return nil
}
