// Package geocode calls the external geocoding HTTP API and caches results.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/pkg/config"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

// resultCache is the slice of the cache layer the client needs.
type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// callRecorder counts outbound geocoding API calls.
type callRecorder interface {
	RecordGeocodeCall()
}

// Client resolves postal codes and formatted addresses to coordinates.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      resultCache
	cacheTTL   time.Duration
	metrics    callRecorder
	logger     *zap.Logger
}

// New constructs a geocoding client. The cache may be nil, in which case
// every lookup hits the external API.
func New(cfg config.GeocodingConfig, cache resultCache, metrics callRecorder, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		metrics:    metrics,
		logger:     logger,
	}
}

// NormalizeQuery canonicalizes an address or postal code for cache keys and
// address deduplication.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(q))), " ")
}

// Lookup resolves a free-form query to a coordinate, consulting the cache
// first. Results are cached by normalized query so repeated searches for the
// same postal code avoid the external call.
func (c *Client) Lookup(ctx context.Context, query string) (*models.Coordinate, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty geocode query")
	}

	cacheKey := "geocode:" + normalized
	if c.cache != nil {
		var cached models.Coordinate
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	coord, err := c.fetch(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, coord, c.cacheTTL); err != nil {
			c.logger.Warn("failed to cache geocode result", zap.Error(err))
		}
	}
	return coord, nil
}

type apiResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) fetch(ctx context.Context, query string) (*models.Coordinate, error) {
	if c.metrics != nil {
		c.metrics.RecordGeocodeCall()
	}
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGeocodingFailed.Code, appErrors.ErrGeocodingFailed.Status, "invalid geocoding endpoint")
	}
	params := endpoint.Query()
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGeocodingFailed.Code, appErrors.ErrGeocodingFailed.Status, "build geocoding request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGeocodingFailed.Code, appErrors.ErrGeocodingFailed.Status, "failed to geocode")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrGeocodingFailed, fmt.Sprintf("geocoding API returned %d", resp.StatusCode))
	}

	var results []apiResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGeocodingFailed.Code, appErrors.ErrGeocodingFailed.Status, "decode geocoding response")
	}
	if len(results) == 0 {
		return nil, appErrors.Clone(appErrors.ErrGeocodingFailed, "no geocoding result for query")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGeocodingFailed.Code, appErrors.ErrGeocodingFailed.Status, "parse geocoding latitude")
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGeocodingFailed.Code, appErrors.ErrGeocodingFailed.Status, "parse geocoding longitude")
	}

	return &models.Coordinate{Latitude: lat, Longitude: lon}, nil
}
