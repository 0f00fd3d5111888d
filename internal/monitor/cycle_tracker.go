package monitor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
)

// CycleTracker records what happened to each link during a monitor cycle
type CycleTracker struct {
	changedURLs    map[string]struct{}
	failedURLs     map[string]struct{}
	currentCycleID string
	startedAt      time.Time
	currentCycle   int
	mutex          sync.RWMutex
}

// NewCycleTracker creates a new CycleTracker
func NewCycleTracker() *CycleTracker {
	return &CycleTracker{
		changedURLs: make(map[string]struct{}),
		failedURLs:  make(map[string]struct{}),
	}
}

// StartCycle resets per-cycle state and returns the new cycle ID.
func (ct *CycleTracker) StartCycle(now time.Time) string {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	ct.currentCycle++
	ct.currentCycleID = fmt.Sprintf("monitor-%s-%d", now.UTC().Format("20060102-150405"), ct.currentCycle)
	ct.startedAt = now
	ct.changedURLs = make(map[string]struct{})
	ct.failedURLs = make(map[string]struct{})
	return ct.currentCycleID
}

// EndCycle returns the summary of the current cycle.
func (ct *CycleTracker) EndCycle(totalLinks int, now time.Time) models.CycleSummary {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()

	return models.CycleSummary{
		CycleID:     ct.currentCycleID,
		TotalLinks:  totalLinks,
		ChangedURLs: sortedKeys(ct.changedURLs),
		FailedURLs:  sortedKeys(ct.failedURLs),
		StartedAt:   ct.startedAt,
		Duration:    now.Sub(ct.startedAt),
	}
}

// AddChangedURL adds a URL to the changed URLs list for the current cycle
func (ct *CycleTracker) AddChangedURL(url string) {
	if url == "" {
		return
	}
	ct.mutex.Lock()
	defer ct.mutex.Unlock()
	ct.changedURLs[url] = struct{}{}
}

// AddFailedURL adds a URL whose check failed in the current cycle
func (ct *CycleTracker) AddFailedURL(url string) {
	if url == "" {
		return
	}
	ct.mutex.Lock()
	defer ct.mutex.Unlock()
	ct.failedURLs[url] = struct{}{}
}

// GetChangedURLs returns the URLs that changed in the current cycle, sorted
func (ct *CycleTracker) GetChangedURLs() []string {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return sortedKeys(ct.changedURLs)
}

// GetCurrentCycleID returns the current cycle ID
func (ct *CycleTracker) GetCurrentCycleID() string {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return ct.currentCycleID
}

// HasChanges returns true if there are changes in the current cycle
func (ct *CycleTracker) HasChanges() bool {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return len(ct.changedURLs) > 0
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
