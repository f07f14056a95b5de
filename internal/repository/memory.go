package repository

import (
	"context"
	"sync"
	"time"

	"cricketpark/internal/models"
)

// MemoryVenueCache is the in-process stand-in used when redis is unavailable.
type MemoryVenueCache struct {
	mu         sync.Mutex
	venues     map[int64]memoryEntry
	rateLimits map[string]*rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	venue     models.Venue
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryVenueCache(ttl time.Duration) *MemoryVenueCache {
	return &MemoryVenueCache{
		venues:     make(map[int64]memoryEntry),
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemoryVenueCache) GetVenue(_ context.Context, id int64) (*models.Venue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.venues[id]
	if !ok {
		return nil, nil
	}
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		delete(r.venues, id)
		return nil, nil
	}
	v := entry.venue
	return &v, nil
}

func (r *MemoryVenueCache) SetVenue(_ context.Context, venue *models.Venue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venues[venue.ID] = memoryEntry{venue: *venue, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemoryVenueCache) InvalidateVenue(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.venues, id)
	return nil
}

func (r *MemoryVenueCache) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}
