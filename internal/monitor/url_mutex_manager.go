package monitor

import (
	"sync"

	"github.com/rs/zerolog"
)

type urlMutex struct {
	mu sync.Mutex
	// refs counts holders and waiters; guarded by URLMutexManager.mapLock.
	refs int
}

// URLMutexManager hands out one mutex per link URL so a forced check and a
// scheduled check of the same link never write its row concurrently.
type URLMutexManager struct {
	mutexes map[string]*urlMutex
	mapLock sync.Mutex
	logger  zerolog.Logger
}

// NewURLMutexManager creates a new URL mutex manager
func NewURLMutexManager(logger zerolog.Logger) *URLMutexManager {
	return &URLMutexManager{
		mutexes: make(map[string]*urlMutex),
		logger:  logger.With().Str("component", "URLMutexManager").Logger(),
	}
}

// Lock blocks until the mutex of url is held and returns its unlock func.
// A mutex stays registered while anyone holds or waits for it.
func (umm *URLMutexManager) Lock(url string) (unlock func()) {
	umm.mapLock.Lock()
	m, exists := umm.mutexes[url]
	if !exists {
		m = &urlMutex{}
		umm.mutexes[url] = m
	}
	m.refs++
	umm.mapLock.Unlock()

	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		umm.mapLock.Lock()
		m.refs--
		umm.mapLock.Unlock()
	}
}

// CleanupUnusedMutexes drops idle mutexes of links that are no longer tracked.
func (umm *URLMutexManager) CleanupUnusedMutexes(activeURLs []string) {
	activeSet := make(map[string]struct{}, len(activeURLs))
	for _, url := range activeURLs {
		activeSet[url] = struct{}{}
	}

	umm.mapLock.Lock()
	defer umm.mapLock.Unlock()

	removed := 0
	for url, m := range umm.mutexes {
		if _, active := activeSet[url]; active || m.refs > 0 {
			continue
		}
		delete(umm.mutexes, url)
		removed++
	}
	if removed > 0 {
		umm.logger.Debug().Int("removed", removed).Int("remaining", len(umm.mutexes)).Msg("Cleaned up link mutexes")
	}
}

// Len returns the number of tracked mutexes.
func (umm *URLMutexManager) Len() int {
	umm.mapLock.Lock()
	defer umm.mapLock.Unlock()
	return len(umm.mutexes)
}
