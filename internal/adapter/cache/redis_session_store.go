package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/lintv8/Mybot/internal/entity"
	"github.com/lintv8/Mybot/internal/usecase"
)

// RedisSessionStore holds sessions in redis so several core instances can
// share them. The TTL doubles as idle-session eviction: an abandoned flow
// simply expires.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl, log: log.With("component", "session-cache")}
}

// Get treats any redis failure as a miss; the dispatcher then starts the
// user from idle, which is the safe default for a transient record.
func (s *RedisSessionStore) Get(userID string) (*domain.Session, bool) {
	raw, err := s.rdb.Get(context.Background(), key(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.log.Warn("session get failed", "user_id", userID, "err", err)
		return nil, false
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.log.Warn("session decode failed", "user_id", userID, "err", err)
		return nil, false
	}
	return &sess, true
}

func (s *RedisSessionStore) Put(userID string, sess *domain.Session) {
	raw, err := json.Marshal(sess)
	if err != nil {
		s.log.Warn("session encode failed", "user_id", userID, "err", err)
		return
	}
	if err := s.rdb.Set(context.Background(), key(userID), raw, s.ttl).Err(); err != nil {
		s.log.Warn("session put failed", "user_id", userID, "err", err)
	}
}

func (s *RedisSessionStore) Clear(userID string) {
	if err := s.rdb.Del(context.Background(), key(userID)).Err(); err != nil {
		s.log.Warn("session clear failed", "user_id", userID, "err", err)
	}
}

func key(userID string) string { return "session:" + userID }

var _ usecase.SessionStore = (*RedisSessionStore)(nil)
