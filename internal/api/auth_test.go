package api

import (
	"context"
	"testing"
	"time"

	"cricketpark/internal/config"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestKeyAuth_Authorize(t *testing.T) {
	auth := newKeyAuth(testConfig().Auth)

	tests := []struct {
		name     string
		key      string
		required string
		wantErr  error
	}{
		{name: "missing", key: "", required: permRead, wantErr: errMissingAPIKey},
		{name: "unknown", key: "nope", required: permRead, wantErr: errInvalidAPIKey},
		{name: "prefix of a real key", key: "admin", required: permRead, wantErr: errInvalidAPIKey},
		{name: "no permissions means all", key: "admin-key", required: permWrite},
		{name: "reader may read", key: "reader-key", required: permRead},
		{name: "reader may not write", key: "reader-key", required: permWrite, wantErr: errPermissionDenied},
		{name: "nothing required", key: "reader-key", required: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.authorize(tt.key, tt.required)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestKeyAuth_Disabled(t *testing.T) {
	auth := newKeyAuth(config.APIAuthConfig{Enabled: false})
	assert.NoError(t, auth.authorize("", permWrite))
	assert.Equal(t, apiKeyHeaderDefault, auth.header)
}

func TestAuthInterceptor(t *testing.T) {
	cfg := testConfig()
	interceptor := NewAuthInterceptor(cfg).Unary()

	handler := func(_ context.Context, _ any) (any, error) {
		return "ok", nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	t.Run("Success", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", "reader-key"))
		resp, err := interceptor(ctx, "req", info, handler)
		assert.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("MissingMetadata", func(t *testing.T) {
		_, err := interceptor(context.Background(), "req", info, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("InvalidKey", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", "invalid"))
		_, err := interceptor(ctx, "req", info, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		limited := testConfig()
		limited.Auth.APIKeys = []config.APIClientKey{{Key: "writer", Permissions: []string{permWrite}}}
		ic := NewAuthInterceptor(limited).Unary()

		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", "writer"))
		_, err := ic(ctx, "req", info, handler)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("APIDisabled", func(t *testing.T) {
		off := testConfig()
		off.Enabled = false
		resp, err := NewAuthInterceptor(off).Unary()(context.Background(), "req", info, handler)
		assert.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})
}

func TestAuthInterceptor_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 1
	interceptor := NewAuthInterceptor(cfg).Unary()

	handler := func(_ context.Context, _ any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", "admin-key"))

	_, err := interceptor(ctx, "req", info, handler)
	assert.NoError(t, err)

	_, err = interceptor(ctx, "req", info, handler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestRateLimiter(t *testing.T) {
	l := newRateLimiter(0.001, 2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	assert.True(t, newRateLimiter(0, 0).Allow("a"), "zero rate disables limiting")
	var nilLimiter *rateLimiter
	assert.True(t, nilLimiter.Allow("a"))
}

func TestRateLimiter_DropsIdleKeys(t *testing.T) {
	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	l := newRateLimiter(0.001, 1)
	l.now = func() time.Time { return clock }
	l.lastSweep.Store(clock.UnixNano())

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.size())

	clock = clock.Add(5 * time.Minute)
	l.Allow("b")
	assert.Equal(t, 2, l.size(), "nothing idle long enough yet")

	clock = clock.Add(6 * time.Minute)
	l.Allow("c")
	_, kept := l.limiters.Load("b")
	_, dropped := l.limiters.Load("a")
	assert.True(t, kept)
	assert.False(t, dropped)
	assert.Equal(t, 2, l.size())

	assert.True(t, l.Allow("a"), "a dropped key starts with a full bucket")
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	interceptor := RecoveryUnaryInterceptor(testLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Boom"}

	_, err := interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err := interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestRequestIDFromMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDMetadataKey, "abc"))
	assert.Equal(t, "abc", requestIDFromMetadata(ctx))
	assert.NotEmpty(t, requestIDFromMetadata(context.Background()))

	assert.Equal(t, "id-1", requestIDFromHeader(" id-1 "))
	assert.Len(t, requestIDFromHeader(""), 36)
}
