// Package session tracks which cart is a user's active cart. The pointer is
// session-style state, not part of the Cart entity: at most one cart per user
// is active, and clearing the pointer leaves the cart itself untouched.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveCartStore holds the per-user active cart pointer.
type ActiveCartStore interface {
	// Get returns the active cart ID for the user, and false if none is set.
	Get(ctx context.Context, userID uint) (uint, bool, error)
	Set(ctx context.Context, userID, cartID uint) error
	Clear(ctx context.Context, userID uint) error
}

const activeCartTTL = 30 * 24 * time.Hour

type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns an ActiveCartStore backed by Redis, the production
// replacement for cookie-session storage of the pointer.
func NewRedisStore(client *redis.Client) ActiveCartStore {
	return &redisStore{client: client}
}

func activeCartKey(userID uint) string {
	return fmt.Sprintf("active_cart:%d", userID)
}

func (s *redisStore) Get(ctx context.Context, userID uint) (uint, bool, error) {
	val, err := s.client.Get(ctx, activeCartKey(userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	cartID, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt active cart pointer %q: %w", val, err)
	}
	return uint(cartID), true, nil
}

func (s *redisStore) Set(ctx context.Context, userID, cartID uint) error {
	return s.client.Set(ctx, activeCartKey(userID), strconv.FormatUint(uint64(cartID), 10), activeCartTTL).Err()
}

func (s *redisStore) Clear(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, activeCartKey(userID)).Err()
}

type memoryStore struct {
	mu       sync.RWMutex
	pointers map[uint]uint
}

// NewMemoryStore returns an in-process ActiveCartStore, used in tests.
func NewMemoryStore() ActiveCartStore {
	return &memoryStore{pointers: make(map[uint]uint)}
}

func (s *memoryStore) Get(_ context.Context, userID uint) (uint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cartID, ok := s.pointers[userID]
	return cartID, ok, nil
}

func (s *memoryStore) Set(_ context.Context, userID, cartID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointers[userID] = cartID
	return nil
}

func (s *memoryStore) Clear(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pointers, userID)
	return nil
}
