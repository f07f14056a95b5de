package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"cricketpark/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}

func (m *mockCache) SetVenue(ctx context.Context, venue *models.Venue) error {
	return m.Called(ctx, venue).Error(0)
}

func (m *mockCache) InvalidateVenue(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverVenueCache(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverVenueCache(primary, fallback, &logger)
	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }
	ctx := context.Background()

	venue := &models.Venue{ID: 1, Name: "Eden"}

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("GetVenue", ctx, int64(1)).Return(venue, nil).Once()

		got, err := repo.GetVenue(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, venue, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailsFallsBack", func(t *testing.T) {
		primary.On("SetVenue", ctx, venue).Return(errors.New("connection refused")).Once()
		fallback.On("SetVenue", ctx, venue).Return(nil).Once()

		assert.NoError(t, repo.SetVenue(ctx, venue))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		fallback.On("GetVenue", ctx, int64(1)).Return(venue, nil).Once()
		fallback.On("CheckRateLimit", ctx, "k", 5, time.Minute).Return(true, nil).Once()

		got, err := repo.GetVenue(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, venue, got)

		allowed, err := repo.CheckRateLimit(ctx, "k", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)

		fallback.AssertExpectations(t)
	})

	t.Run("InvalidateClearsFallbackWhileDown", func(t *testing.T) {
		fallback.On("InvalidateVenue", ctx, int64(1)).Return(nil).Once()
		assert.NoError(t, repo.InvalidateVenue(ctx, 1))
		fallback.AssertExpectations(t)
	})

	t.Run("RecoversAfterInterval", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		primary.On("CheckRateLimit", ctx, "k", 5, time.Minute).Return(false, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "k", 5, time.Minute)
		assert.NoError(t, err)
		assert.False(t, allowed)

		primary.On("GetVenue", ctx, int64(1)).Return(venue, nil).Once()
		_, err = repo.GetVenue(ctx, 1)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("InvalidateHitsBothWhenUp", func(t *testing.T) {
		primary.On("InvalidateVenue", ctx, int64(2)).Return(nil).Once()
		fallback.On("InvalidateVenue", ctx, int64(2)).Return(nil).Once()
		assert.NoError(t, repo.InvalidateVenue(ctx, 2))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
