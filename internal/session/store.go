// Package session keeps the per-participant conversation state between
// events.  Sessions live in Redis with a TTL so an abandoned conversation
// eventually disappears; when Redis is not available the bot falls back to
// an in-process map.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-bot/internal/model"
)

// Store reads and writes sessions keyed by participant id.  Get returns
// nil, nil when the participant has no session.
type Store interface {
	Get(ctx context.Context, participantID int64) (*model.Session, error)
	Put(ctx context.Context, s *model.Session) error
	Clear(ctx context.Context, participantID int64) error
}

const keyPrefix = "session:"

func key(participantID int64) string { return fmt.Sprintf("%s%d", keyPrefix, participantID) }

// RedisStore stores each session as a JSON string under session:<id>.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore returns a RedisStore whose entries expire ttl after the
// last write.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *RedisStore) Get(ctx context.Context, participantID int64) (*model.Session, error) {
	raw, err := s.rdb.Get(ctx, key(participantID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get %d: %w", participantID, err)
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("session decode %d: %w", participantID, err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = s.now().UTC()
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key(sess.ParticipantID), string(b), s.ttl).Err(); err != nil {
		return fmt.Errorf("session put %d: %w", sess.ParticipantID, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, participantID int64) error {
	if err := s.rdb.Del(ctx, key(participantID)).Err(); err != nil {
		return fmt.Errorf("session clear %d: %w", participantID, err)
	}
	return nil
}

// MemoryStore is the in-process fallback.  Entries expire like in Redis
// but are lost on restart.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[int64]memoryEntry
}

type memoryEntry struct {
	sess    model.Session
	expires time.Time
}

// NewMemoryStore returns an empty MemoryStore.  A zero ttl keeps entries
// until cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, data: make(map[int64]memoryEntry)}
}

func (m *MemoryStore) Get(_ context.Context, participantID int64) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[participantID]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, participantID)
		return nil, nil
	}
	sess := e.sess
	return &sess, nil
}

func (m *MemoryStore) Put(_ context.Context, sess *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	sess.UpdatedAt = now.UTC()
	e := memoryEntry{sess: *sess}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	m.data[sess.ParticipantID] = e
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, participantID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, participantID)
	return nil
}
