package cache

import (
	"sync"
	"time"

	"fintrack/internal/log"
)

// Cache is the read/write surface handlers use; LRU implements it.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs the background sweep across every registered cache.
type Manager struct {
	cleaners []Cleaner
	logger   *log.Logger
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentCache)
	}
	return &Manager{
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds a cache to the sweep. Not safe to call after
// StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.cleaners = append(m.cleaners, c)
}

// StartCleanup launches the periodic sweep. Call Stop to end it.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.sweep(interval)
}

func (m *Manager) sweep(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := 0
			for _, c := range m.cleaners {
				cleaned += c.CleanExpired()
			}
			if cleaned > 0 {
				m.logger.Debug("Cleaned expired cache entries", "count", cleaned)
			}
		case <-m.stop:
			return
		}
	}
}

// Stop ends the sweep and waits for it to exit. Safe to call more
// than once, and without a prior StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.started {
			<-m.done
		}
	})
}
