package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fieldservice-workers/internal/common/config"
	"fieldservice-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func createTestConfig(baseURL string) config.GeocodingConfig {
	return config.GeocodingConfig{
		BaseURL:      baseURL,
		CountryCodes: "br",
		UserAgent:    "fieldservice-workers-test",
		Timeout:      500,
		CacheTTL:     3600,
		NegativeTTL:  60,
	}
}

func nominatimServer(t *testing.T, body string, status int, hits *int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "br", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "fieldservice-workers-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ==========================
// Core Functionality Tests
// ==========================

func TestClient_Geocode_Success(t *testing.T) {
	var hits int32
	srv := nominatimServer(t, `[{"lat":"-23.5614","lon":"-46.6559","display_name":"Av. Paulista"}]`, http.StatusOK, &hits)
	_, rdb := setupRedis(t)

	client := NewClient(createTestConfig(srv.URL), rdb, logger.NewTestLogger(t))

	coords, err := client.Geocode(context.Background(), "Av. Paulista, 1000 - São Paulo")
	require.NoError(t, err)
	assert.InDelta(t, -23.5614, coords.Latitude, 1e-9)
	assert.InDelta(t, -46.6559, coords.Longitude, 1e-9)

	// second lookup, different spacing and case, is served from cache
	coords, err = client.Geocode(context.Background(), "  av. paulista,   1000 - são paulo ")
	require.NoError(t, err)
	assert.InDelta(t, -23.5614, coords.Latitude, 1e-9)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_Geocode_EmptyResultIsCachedNegative(t *testing.T) {
	var hits int32
	srv := nominatimServer(t, `[]`, http.StatusOK, &hits)
	mr, rdb := setupRedis(t)

	client := NewClient(createTestConfig(srv.URL), rdb, logger.NewTestLogger(t))

	_, err := client.Geocode(context.Background(), "Rua Inexistente 999")
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = client.Geocode(context.Background(), "Rua Inexistente 999")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	mr.FastForward(61 * time.Second)
	_, err = client.Geocode(context.Background(), "Rua Inexistente 999")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_Geocode_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"rate limited", http.StatusTooManyRequests, ``},
		{"malformed body", http.StatusOK, `not json`},
		{"bad latitude", http.StatusOK, `[{"lat":"north","lon":"-46.6"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := nominatimServer(t, tt.body, tt.status, &hits)
			mr, rdb := setupRedis(t)

			client := NewClient(createTestConfig(srv.URL), rdb, logger.NewTestLogger(t))

			coords, err := client.Geocode(context.Background(), "Av. Paulista, 1000")
			assert.Error(t, err)
			assert.Nil(t, coords)
			assert.Empty(t, mr.Keys(), "failures other than empty results are not cached")
		})
	}
}

func TestClient_Geocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	cfg := createTestConfig(srv.URL)
	cfg.Timeout = 50
	client := NewClient(cfg, nil, logger.NewNoOpLogger())

	start := time.Now()
	_, err := client.Geocode(context.Background(), "Av. Paulista, 1000")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_Geocode_EmptyAddress(t *testing.T) {
	client := NewClient(createTestConfig("http://127.0.0.1:1"), nil, logger.NewNoOpLogger())

	_, err := client.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestClient_Geocode_CacheDisabled(t *testing.T) {
	var hits int32
	srv := nominatimServer(t, `[{"lat":"-23.5","lon":"-46.6"}]`, http.StatusOK, &hits)
	mr, rdb := setupRedis(t)

	cfg := createTestConfig(srv.URL)
	cfg.CacheDisabled = true
	client := NewClient(cfg, rdb, logger.NewNoOpLogger())

	for i := 0; i < 2; i++ {
		_, err := client.Geocode(context.Background(), "Av. Paulista, 1000")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Empty(t, mr.Keys())
}
