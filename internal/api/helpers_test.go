package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cricketpark/internal/config"
	"cricketpark/internal/database"
	"cricketpark/internal/export"
	"cricketpark/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func testConfig() *config.APIConfig {
	return &config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: "admin-key", Name: "admin"},
				{Key: "reader-key", Name: "reader", Permissions: []string{permRead}},
			},
		},
		RateLimit: config.APIRateLimitConfig{RPS: 1000, Burst: 1000},
	}
}

type testAPI struct {
	t       *testing.T
	db      *database.DB
	handler http.Handler
}

func newTestAPI(t *testing.T, cfg *config.APIConfig) *testAPI {
	t.Helper()
	logger := testLogger()

	db, err := database.NewDB(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	venues := service.NewVenueService(db, nil, db, logger)
	svc := Services{
		Bookings: service.NewBookingService(db, venues, nil, nil, logger),
		Venues:   venues,
		Payments: service.NewPaymentService(db, db, logger),
		Users:    service.NewUserService(db, logger),
		Reports:  export.NewReporter(db, db, t.TempDir(), logger),
		Health:   db,
	}
	return &testAPI{t: t, db: db, handler: NewHTTPServer(cfg, svc, logger).Handler()}
}

// do sends body as JSON with the admin key unless headers override it.
func (a *testAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("x-api-key", "admin-key")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testAPI) createVenue(pricePerHour int64) int64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/venues", map[string]any{
		"name":              "Oval",
		"city":              "Pune",
		"price_per_hour":    pricePerHour,
		"number_of_pitches": 2,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[struct {
		ID int64 `json:"id"`
	}](a.t, rec).ID
}
