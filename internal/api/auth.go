package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"cricketpark/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault = "x-api-key"
	permRead            = "read"
	permWrite           = "write"
	clientKeyUnknown    = "unknown"
)

var (
	errMissingAPIKey    = errors.New("missing api key header")
	errInvalidAPIKey    = errors.New("invalid api key")
	errPermissionDenied = errors.New("permission denied")
	errRateLimited      = errors.New("rate limit exceeded")
)

// keyAuth checks API keys and their permissions. Transport wrappers translate its errors.
type keyAuth struct {
	enabled bool
	header  string
	clients []config.APIClientKey
}

func newKeyAuth(cfg config.APIAuthConfig) *keyAuth {
	header := strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return &keyAuth{enabled: cfg.Enabled, header: header, clients: cfg.APIKeys}
}

// authorize resolves apiKey and checks it grants required. An empty permission list allows everything.
func (a *keyAuth) authorize(apiKey, required string) error {
	if !a.enabled {
		return nil
	}
	if apiKey == "" {
		return errMissingAPIKey
	}

	var client *config.APIClientKey
	for i := range a.clients {
		if subtle.ConstantTimeCompare([]byte(a.clients[i].Key), []byte(apiKey)) == 1 {
			client = &a.clients[i]
			break
		}
	}
	if client == nil {
		return errInvalidAPIKey
	}

	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

// AuthInterceptor applies API-key auth and per-client rate limits to gRPC calls.
type AuthInterceptor struct {
	cfg     *config.APIConfig
	auth    *keyAuth
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg *config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{
		cfg:     cfg,
		auth:    newKeyAuth(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !a.cfg.Enabled {
			return handler(ctx, req)
		}

		apiKey := a.metadataKey(ctx)
		if err := a.auth.authorize(apiKey, requiredPermission(info.FullMethod)); err != nil {
			if errors.Is(err, errPermissionDenied) {
				return nil, status.Error(codes.PermissionDenied, err.Error())
			}
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		if !a.limiter.Allow(a.clientKey(ctx, apiKey)) {
			return nil, status.Error(codes.ResourceExhausted, errRateLimited.Error())
		}
		return handler(ctx, req)
	}
}

// requiredPermission maps a gRPC method to the permission it needs. Only read-only services are exposed.
func requiredPermission(fullMethod string) string {
	if strings.HasPrefix(fullMethod, "/grpc.health.v1.Health/") {
		return permRead
	}
	return ""
}

func (a *AuthInterceptor) metadataKey(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	return first(md.Get(a.auth.header))
}

func (a *AuthInterceptor) clientKey(ctx context.Context, apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
