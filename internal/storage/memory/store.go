package memory

import (
	"context"
	"sync"
	"time"

	"github.com/liormulay/order-processing-system/internal/domain"
)

type entry struct {
	value     string
	expiresAt time.Time // нулевое значение — запись без срока
}

// Store — in-memory реализация KeyValueStore с TTL для локальной разработки и тестов.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return NewStoreWithClock(nil)
}

// NewStoreWithClock позволяет подменить источник времени в тестах.
func NewStoreWithClock(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		items: make(map[string]entry),
		now:   now,
	}
}

// Put сохраняет значение; ttl <= 0 означает запись без срока.
func (s *Store) Put(_ context.Context, key, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry{value: value, expiresAt: expiresAt}
	return nil
}

// Get возвращает значение или ErrKeyNotFound, если ключа нет либо истёк его TTL.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.now()) {
		// Просроченные записи вычищает DeleteExpired; здесь достаточно не отдавать их.
		return "", domain.ErrKeyNotFound
	}
	return e.value, nil
}

// DeleteExpired удаляет записи, чей срок истёк к моменту before.
// limit > 0 ограничивает размер batch.
func (s *Store) DeleteExpired(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.items {
		if e.expiresAt.IsZero() || e.expiresAt.After(before) {
			continue
		}
		delete(s.items, key)
		removed++
		if limit > 0 && removed >= limit {
			break
		}
	}

	return removed, nil
}

var _ domain.KeyValueStore = (*Store)(nil)
