package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSequencerTTL bounds how long an idle scope keeps its counter
const DefaultSequencerTTL = 24 * time.Hour

type scopeCounter struct {
	token    uint64
	lastUsed time.Time
}

// MemorySequencer keeps the latest token per scope in process memory. Scopes
// idle for longer than the ttl are dropped, like expired Redis counters.
type MemorySequencer struct {
	mu        sync.Mutex
	latest    map[string]*scopeCounter
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemorySequencer creates an empty MemorySequencer. A ttl <= 0 uses
// DefaultSequencerTTL.
func NewMemorySequencer(ttl time.Duration) *MemorySequencer {
	if ttl <= 0 {
		ttl = DefaultSequencerTTL
	}
	return &MemorySequencer{
		latest: make(map[string]*scopeCounter),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Next issues the next token for scope
func (s *MemorySequencer) Next(_ context.Context, scope string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	counter, ok := s.latest[scope]
	if !ok {
		counter = &scopeCounter{}
		s.latest[scope] = counter
	}
	counter.token++
	counter.lastUsed = now
	return counter.token, nil
}

// IsLatest reports whether token is the last one issued for scope. A dropped
// scope cannot be compared, so the token is taken as latest.
func (s *MemorySequencer) IsLatest(_ context.Context, scope string, token uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.latest[scope]
	if !ok {
		return true, nil
	}
	return counter.token == token, nil
}

// sweep drops idle scopes, at most once per ttl. Callers hold mu.
func (s *MemorySequencer) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for scope, counter := range s.latest {
		if now.Sub(counter.lastUsed) > s.ttl {
			delete(s.latest, scope)
		}
	}
}

// RedisSequencer shares tokens between server instances through Redis
type RedisSequencer struct {
	redis     *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSequencer creates a sequencer whose counters expire after ttl of inactivity
func NewRedisSequencer(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSequencer {
	return &RedisSequencer{
		redis:     client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisSequencer) key(scope string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, scope)
}

// Next issues the next token for scope
func (s *RedisSequencer) Next(ctx context.Context, scope string) (uint64, error) {
	key := s.key(scope)

	// Use Redis pipeline for atomic operations
	pipe := s.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to issue request token: %w", err)
	}
	return uint64(incrCmd.Val()), nil
}

// IsLatest reports whether token is the last one issued for scope. An
// expired counter cannot be compared, so the token is taken as latest.
func (s *RedisSequencer) IsLatest(ctx context.Context, scope string, token uint64) (bool, error) {
	current, err := s.redis.Get(ctx, s.key(scope)).Uint64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read request token: %w", err)
	}
	return current == token, nil
}
