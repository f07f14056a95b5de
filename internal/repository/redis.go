package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cricketpark/internal/config"
	"cricketpark/internal/models"

	"github.com/redis/go-redis/v9"
)

var errNilClient = errors.New("redis client is nil")

// RedisVenueCache keeps venue records in redis under venue:<id> with a fixed TTL.
type RedisVenueCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisVenueCache(client *redis.Client, ttl time.Duration) *RedisVenueCache {
	return &RedisVenueCache{client: client, ttl: ttl}
}

func venueKey(id int64) string {
	return fmt.Sprintf("venue:%d", id)
}

// GetVenue returns nil, nil on a cache miss.
func (r *RedisVenueCache) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	if r.client == nil {
		return nil, errNilClient
	}
	val, err := r.client.Get(ctx, venueKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue from redis: %w", err)
	}

	var venue models.Venue
	if err := json.Unmarshal(val, &venue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal venue: %w", err)
	}
	return &venue, nil
}

func (r *RedisVenueCache) SetVenue(ctx context.Context, venue *models.Venue) error {
	if r.client == nil {
		return errNilClient
	}
	data, err := json.Marshal(venue)
	if err != nil {
		return fmt.Errorf("failed to marshal venue: %w", err)
	}
	if err := r.client.Set(ctx, venueKey(venue.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set venue in redis: %w", err)
	}
	return nil
}

func (r *RedisVenueCache) InvalidateVenue(ctx context.Context, id int64) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, venueKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete venue from redis: %w", err)
	}
	return nil
}

// CheckRateLimit is a fixed-window counter: the first hit in a window sets its expiry.
func (r *RedisVenueCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	rkey := "rate_limit:" + key
	count, err := r.client.Incr(ctx, rkey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, rkey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count <= int64(limit), nil
}

// Ping checks the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
