// Package geocoding resolves free-text addresses to coordinates through a
// Nominatim-compatible search API, with a Redis cache in front of it.
package geocoding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fieldservice-workers/internal/common/config"
	httpclient "fieldservice-workers/internal/common/http"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNoResults    = errors.New("GEOCODING_NO_RESULTS")
	ErrEmptyAddress = errors.New("GEOCODING_EMPTY_ADDRESS")
)

const cacheKeyPrefix = "geocode:"

// Geocoder turns an address into coordinates. Any error means "unavailable".
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

type Client struct {
	config config.GeocodingConfig
	http   *httpclient.Client
	redis  *redis.Client
	logger logger.Logger
}

// NewClient builds a geocoder. rdb may be nil, which disables caching.
func NewClient(cfg config.GeocodingConfig, rdb *redis.Client, log logger.Logger) *Client {
	if cfg.CacheDisabled {
		rdb = nil
	}
	return &Client{
		config: cfg,
		http:   httpclient.NewClient(config.GetDuration(cfg.Timeout)).WithUserAgent(cfg.UserAgent),
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"component": "geocoder"}),
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type cacheEntry struct {
	Found     bool    `json:"found"`
	Latitude  float64 `json:"lat,omitempty"`
	Longitude float64 `json:"lon,omitempty"`
}

func (c *Client) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	normalized := normalizeAddress(address)
	if normalized == "" {
		return nil, ErrEmptyAddress
	}
	key := cacheKey(normalized)

	if entry, ok := c.cached(ctx, key); ok {
		if !entry.Found {
			return nil, ErrNoResults
		}
		return &models.Coordinates{Latitude: entry.Latitude, Longitude: entry.Longitude}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(c.config.Timeout))
	defer cancel()

	coords, err := c.search(ctx, normalized)
	switch {
	case errors.Is(err, ErrNoResults):
		c.store(ctx, key, cacheEntry{Found: false}, time.Duration(c.config.NegativeTTL)*time.Second)
		return nil, err
	case err != nil:
		return nil, err
	}

	c.store(ctx, key, cacheEntry{Found: true, Latitude: coords.Latitude, Longitude: coords.Longitude},
		time.Duration(c.config.CacheTTL)*time.Second)
	return coords, nil
}

func (c *Client) search(ctx context.Context, query string) (*models.Coordinates, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if c.config.CountryCodes != "" {
		params.Set("countrycodes", c.config.CountryCodes)
	}
	if c.config.APIKey != "" {
		params.Set("key", c.config.APIKey)
	}
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/search?" + params.Encode()

	var results []searchResult
	if err := c.http.GetJSON(ctx, endpoint, nil, &results); err != nil {
		return nil, fmt.Errorf("geocode search: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode longitude %q: %w", results[0].Lon, err)
	}
	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func (c *Client) cached(ctx context.Context, key string) (cacheEntry, bool) {
	if c.redis == nil {
		return cacheEntry{}, false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("geocode cache read failed", map[string]interface{}{"error": err})
		}
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *Client) store(ctx context.Context, key string, entry cacheEntry, ttl time.Duration) {
	if c.redis == nil || ttl <= 0 {
		return
	}
	data, _ := json.Marshal(entry)
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("geocode cache write failed", map[string]interface{}{"error": err})
	}
}

func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func cacheKey(normalized string) string {
	sum := sha1.Sum([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
