package limiter

import (
	"context"
	"sync"
	"time"
)

// Memory представляет rate limiter на основе токен-бакета в памяти процесса.
// Бакет полностью пополняется раз в window.
type Memory struct {
	buckets  map[string]*bucket
	cleanupC chan struct{}
	now      func() time.Time
	rate     int
	window   time.Duration
	mu       sync.RWMutex
	stopOnce sync.Once
}

// bucket представляет bucket для конкретного IP/ключа
type bucket struct {
	lastRefill time.Time
	tokens     int
	mu         sync.Mutex
}

// NewMemory создает новый rate limiter
// rate - максимальное количество запросов в единицу времени
// window - временное окно (например, 1 минута)
func NewMemory(rate int, window time.Duration) *Memory {
	m := &Memory{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		window:   window,
		now:      time.Now,
		cleanupC: make(chan struct{}),
	}

	// Запускаем периодическую очистку старых buckets
	go m.cleanup()

	return m
}

// cleanup периодически удаляет неактивные buckets для экономии памяти
func (m *Memory) cleanup() {
	ticker := time.NewTicker(m.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupOldBuckets()
		case <-m.cleanupC:
			return
		}
	}
}

// cleanupOldBuckets удаляет buckets, которые не использовались дольше 2*window
func (m *Memory) cleanupOldBuckets() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, b := range m.buckets {
		b.mu.Lock()
		if now.Sub(b.lastRefill) > m.window*2 {
			delete(m.buckets, key)
		}
		b.mu.Unlock()
	}
}

// Stop останавливает cleanup goroutine. Повторный вызов безопасен.
func (m *Memory) Stop() {
	m.stopOnce.Do(func() {
		close(m.cleanupC)
	})
}

// Allow проверяет, разрешен ли запрос для данного ключа. Ошибку не возвращает никогда.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	b, exists := m.buckets[key]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		// Повторная проверка: другой запрос мог создать bucket
		b, exists = m.buckets[key]
		if !exists {
			b = &bucket{
				tokens:     m.rate,
				lastRefill: m.now(),
			}
			m.buckets[key] = b
		}
		m.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := m.now()

	// Пополняем токены, если окно прошло
	if now.Sub(b.lastRefill) >= m.window {
		b.tokens = m.rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}

	return false, nil
}
