package mcp

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecordAndGet(t *testing.T) {
	h := NewSearchHistory(5)

	payload := json.RawMessage(`{"result":{"answer":"X"}}`)
	recorded := h.Record("what is blockchain?", payload)

	got, ok := h.Get(0)
	require.True(t, ok)
	assert.Equal(t, recorded, got)
	assert.Equal(t, "what is blockchain?", got.Query)
	assert.Equal(t, payload, got.Response)
}

func TestHistoryNewestFirst(t *testing.T) {
	h := NewSearchHistory(5)

	h.Record("first", json.RawMessage(`1`))
	h.Record("second", json.RawMessage(`2`))
	h.Record("third", json.RawMessage(`3`))

	entries := h.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Query)
	assert.Equal(t, "second", entries[1].Query)
	assert.Equal(t, "first", entries[2].Query)
}

func TestHistoryEviction(t *testing.T) {
	h := NewSearchHistory(5)

	for i := 0; i < 8; i++ {
		h.Record(fmt.Sprintf("query-%d", i), json.RawMessage(`{}`))
	}

	entries := h.List()
	require.Len(t, entries, 5)

	// Only the 5 most recent survive, newest first.
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("query-%d", 7-i), entry.Query)
	}
}

func TestHistoryGetOutOfRange(t *testing.T) {
	h := NewSearchHistory(5)
	h.Record("only", json.RawMessage(`{}`))

	_, ok := h.Get(1)
	assert.False(t, ok)

	_, ok = h.Get(-1)
	assert.False(t, ok)

	_, ok = h.Get(100)
	assert.False(t, ok)
}

func TestHistoryTimestampFormat(t *testing.T) {
	h := NewSearchHistory(5)
	h.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))
	}

	entry := h.Record("q", json.RawMessage(`{}`))
	assert.Equal(t, "2026-03-14T08:26:53Z", entry.Timestamp)
}

func TestHistoryCapacityFallback(t *testing.T) {
	assert.Equal(t, DefaultHistorySize, NewSearchHistory(0).Capacity())
	assert.Equal(t, DefaultHistorySize, NewSearchHistory(-3).Capacity())
	assert.Equal(t, 2, NewSearchHistory(2).Capacity())
}

func TestHistoryListIsSnapshot(t *testing.T) {
	h := NewSearchHistory(5)
	h.Record("a", json.RawMessage(`{}`))

	entries := h.List()
	entries[0].Query = "mutated"

	got, ok := h.Get(0)
	require.True(t, ok)
	assert.Equal(t, "a", got.Query)
}
