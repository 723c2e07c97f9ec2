package cache

import (
	"context"
	"sync"
	"time"
)

// Cache holds read-mostly aggregates for a bounded time. Entries carry tags so
// write paths can drop everything derived from a changed record.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	// GetStale returns an entry even after its TTL elapsed, until it is invalidated or swept
	GetStale(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string)
	InvalidateTag(ctx context.Context, tags ...string)
}

type entry struct {
	value     interface{}
	expiresAt time.Time
	tags      []string
}

// Memory is a process-local Cache. It is only coherent within one instance.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	byTag   map[string]map[string]struct{}
	now     func() time.Time
}

// NewMemory creates an empty in-process cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		byTag:   make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

// Get returns a live entry
func (m *Memory) Get(_ context.Context, key string) (interface{}, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// GetStale returns an entry even after its TTL elapsed, for fallbacks when a fresh read times out
func (m *Memory) GetStale(_ context.Context, key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl
func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl), tags: tags}
	for _, tag := range tags {
		keys, ok := m.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// InvalidateTag drops every entry carrying any of the tags
func (m *Memory) InvalidateTag(_ context.Context, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tag := range tags {
		for key := range m.byTag[tag] {
			m.removeLocked(key)
		}
		delete(m.byTag, tag)
	}
}

// Sweep removes expired entries and returns how many were dropped
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			m.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) removeLocked(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	for _, tag := range e.tags {
		if keys, ok := m.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.byTag, tag)
			}
		}
	}
}
