package mcp

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultHistorySize is the number of recent results kept when no
// explicit capacity is configured.
const DefaultHistorySize = 5

// SearchResult is one recorded search or agent result. Immutable once
// recorded; it leaves the history only by eviction.
type SearchResult struct {
	Query     string          `json:"query"`
	Response  json.RawMessage `json:"response"`
	Timestamp string          `json:"timestamp"`
}

// SearchHistory keeps the most recent search and agent results, newest
// first, bounded to a fixed capacity. The oldest entry is evicted when
// a record would exceed it. Safe for concurrent use.
type SearchHistory struct {
	mu       sync.RWMutex
	capacity int
	entries  []SearchResult
	now      func() time.Time
}

// NewSearchHistory creates a history bounded to the given capacity.
// A capacity below 1 falls back to DefaultHistorySize.
func NewSearchHistory(capacity int) *SearchHistory {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &SearchHistory{
		capacity: capacity,
		entries:  make([]SearchResult, 0, capacity),
		now:      time.Now,
	}
}

// Record stores a result at position 0, shifting existing entries back
// and evicting the oldest when the history is full. The response is
// stored as-is.
func (h *SearchHistory) Record(query string, response json.RawMessage) SearchResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := SearchResult{
		Query:     query,
		Response:  response,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}

	h.entries = append([]SearchResult{entry}, h.entries...)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[:h.capacity]
	}

	return entry
}

// Get returns the entry at the given position, 0 being the most recent.
func (h *SearchHistory) Get(index int) (SearchResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if index < 0 || index >= len(h.entries) {
		return SearchResult{}, false
	}
	return h.entries[index], true
}

// List returns a snapshot of all entries, newest first.
func (h *SearchHistory) List() []SearchResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]SearchResult, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of recorded entries.
func (h *SearchHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Capacity returns the maximum number of entries kept.
func (h *SearchHistory) Capacity() int {
	return h.capacity
}
