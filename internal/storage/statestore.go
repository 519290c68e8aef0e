package storage

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	stateKeyPrefix = "analyzer:state:"
	redisTimeout   = 2 * time.Second
)

// StateStore keeps order book state in Redis with an in-memory fallback.
// Saves are fire-and-forget: the in-memory copy is updated synchronously
// and a single flusher goroutine writes dirty keys to Redis, so writes to
// the same key can never reach Redis out of order and a persistence outage
// never blocks event processing.
type StateStore struct {
	client    *redis.Client
	mu        sync.Mutex
	fallback  map[string][]byte
	dirty     map[string]struct{}
	kick      chan struct{}
	available atomic.Bool
	logger    *zap.Logger
}

// NewStateStore connects to Redis. When addr is empty or Redis is
// unreachable the store runs memory-only and state will not survive a
// restart.
func NewStateStore(addr, password string, db int, logger *zap.Logger) *StateStore {
	s := &StateStore{
		fallback: make(map[string][]byte),
		dirty:    make(map[string]struct{}),
		kick:     make(chan struct{}, 1),
		logger:   logger,
	}
	if addr == "" {
		logger.Warn("state_store_memory_only")
		return s
	}

	s.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		logger.Warn("state_store_redis_unavailable", zap.Error(err))
		s.available.Store(false)
	} else {
		logger.Info("state_store_redis_connected", zap.String("addr", addr))
		s.available.Store(true)
	}
	go s.flushLoop()
	return s
}

// Close releases the Redis connection.
func (s *StateStore) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

// Save persists a value under key. The in-memory copy is written
// immediately; the Redis write is queued for the flusher. Errors are
// logged and swallowed; durability is best effort.
func (s *StateStore) Save(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("state_marshal_failed", zap.String("key", key), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.fallback[key] = data
	if s.client != nil {
		s.dirty[key] = struct{}{}
	}
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// flushLoop is the single Redis writer. Dirty keys are drained one at a
// time with the freshest value, so repeated saves of a key coalesce and
// the last write always wins.
func (s *StateStore) flushLoop() {
	for range s.kick {
		for {
			key, data, ok := s.nextDirty()
			if !ok {
				break
			}
			s.writeKey(key, data)
		}
	}
}

func (s *StateStore) nextDirty() (string, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.dirty {
		delete(s.dirty, key)
		return key, s.fallback[key], true
	}
	return "", nil, false
}

func (s *StateStore) writeKey(key string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := s.client.Set(ctx, stateKeyPrefix+key, data, 0).Err(); err != nil {
		if s.available.Swap(false) {
			s.logger.Warn("state_save_failed", zap.String("key", key), zap.Error(err))
		}
		return
	}
	s.available.Store(true)
}

// Load reads a value into the given pointer, preferring Redis and falling
// back to the in-memory copy. It reports whether a value was found.
func (s *StateStore) Load(key string, into any) bool {
	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
		defer cancel()
		data, err := s.client.Get(ctx, stateKeyPrefix+key).Bytes()
		if err == nil {
			jsonErr := json.Unmarshal(data, into)
			if jsonErr == nil {
				return true
			}
			s.logger.Error("state_unmarshal_failed", zap.String("key", key), zap.Error(jsonErr))
		} else if err != redis.Nil {
			s.logger.Warn("state_load_failed", zap.String("key", key), zap.Error(err))
		}
	}

	s.mu.Lock()
	data, ok := s.fallback[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(data, into) == nil
}
