package repository

import (
	"context"
	"sync"
	"time"

	"cricketpark/internal/domain"
	"cricketpark/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverVenueCache serves from primary until it errors, then from fallback,
// probing primary again once per recoveryInterval.
type FailoverVenueCache struct {
	primary  domain.VenueCache
	fallback domain.VenueCache
	logger   *zerolog.Logger

	mu        sync.Mutex
	isDown    bool
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverVenueCache(primary, fallback domain.VenueCache, logger *zerolog.Logger) *FailoverVenueCache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverVenueCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverVenueCache) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		return true
	}
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

// record updates health from the outcome of a primary call and reports whether it succeeded.
func (r *FailoverVenueCache) record(err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		if r.isDown {
			r.logger.Info().Msg("primary venue cache recovered")
		}
		r.isDown = false
		return true
	}
	if !r.isDown {
		r.logger.Error().Err(err).Msg("primary venue cache failed, falling back to memory")
	}
	r.isDown = true
	r.lastCheck = r.now()
	return false
}

func (r *FailoverVenueCache) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	if r.usePrimary() {
		venue, err := r.primary.GetVenue(ctx, id)
		if r.record(err) {
			return venue, nil
		}
	}
	return r.fallback.GetVenue(ctx, id)
}

func (r *FailoverVenueCache) SetVenue(ctx context.Context, venue *models.Venue) error {
	if r.usePrimary() && r.record(r.primary.SetVenue(ctx, venue)) {
		return nil
	}
	return r.fallback.SetVenue(ctx, venue)
}

// InvalidateVenue clears both layers so a recovered primary never serves a stale record held by fallback.
func (r *FailoverVenueCache) InvalidateVenue(ctx context.Context, id int64) error {
	if r.usePrimary() {
		r.record(r.primary.InvalidateVenue(ctx, id))
	}
	return r.fallback.InvalidateVenue(ctx, id)
}

func (r *FailoverVenueCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if r.record(err) {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
