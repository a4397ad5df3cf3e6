// Package geocode resolves street addresses to coordinates with a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/observ"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const cacheTTL = 30 * 24 * time.Hour

type Address struct {
	Street     string
	City       string
	Country    string
	PostalCode string
}

func (a Address) cacheKey() string {
	parts := []string{a.Street, a.City, a.Country, a.PostalCode}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return "geocode:" + strings.Join(parts, "|")
}

// Result is the outcome of a lookup. Resolved is false when the service had
// no match, in which case Coordinates is the zero point.
type Result struct {
	Coordinates models.Coordinates
	Resolved    bool
}

// Cache stores resolved lookups. *cache.Redis implements it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	cache     Cache
	logger    *zap.Logger
}

type Option func(*Geocoder)

func WithCache(c Cache) Option {
	return func(g *Geocoder) { g.cache = c }
}

func WithHTTPClient(c *http.Client) Option {
	return func(g *Geocoder) { g.client = c }
}

// WithRate overrides the request rate. Nominatim's public instance allows
// one request per second.
func WithRate(r rate.Limit) Option {
	return func(g *Geocoder) { g.limiter = rate.NewLimiter(r, 1) }
}

func NewGeocoder(baseURL, userAgent string, logger *zap.Logger, opts ...Option) *Geocoder {
	g := &Geocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Lookup returns the first match for addr. A lookup that finds nothing is
// not an error; callers fall back to the zero point either way.
func (g *Geocoder) Lookup(ctx context.Context, addr Address) (Result, error) {
	key := addr.cacheKey()

	if g.cache != nil {
		if cached, ok, err := g.cache.Get(ctx, key); err != nil {
			g.logger.Warn("geocode cache read failed", zap.Error(err))
		} else if ok {
			if coords, err := decodeCoordinates(cached); err == nil {
				observ.GeocodeLookups.WithLabelValues("cache_hit").Inc()
				return Result{Coordinates: coords, Resolved: true}, nil
			}
		}
	}

	res, err := g.search(ctx, addr)
	if err != nil {
		observ.GeocodeLookups.WithLabelValues("error").Inc()
		return Result{}, err
	}
	if !res.Resolved {
		observ.GeocodeLookups.WithLabelValues("unresolved").Inc()
		return res, nil
	}

	observ.GeocodeLookups.WithLabelValues("resolved").Inc()
	if g.cache != nil {
		if err := g.cache.Set(ctx, key, encodeCoordinates(res.Coordinates), cacheTTL); err != nil {
			g.logger.Warn("geocode cache write failed", zap.Error(err))
		}
	}
	return res, nil
}

func (g *Geocoder) search(ctx context.Context, addr Address) (Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("wait for geocode slot: %w", err)
	}

	params := url.Values{}
	params.Set("street", addr.Street)
	params.Set("city", addr.City)
	params.Set("country", addr.Country)
	params.Set("postalcode", addr.PostalCode)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read geocode response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return Result{}, fmt.Errorf("geocode response is not json")
	}

	first := gjson.GetBytes(body, "0")
	if !first.Exists() {
		return Result{}, nil
	}

	// Nominatim returns coordinates as strings.
	lat, lon := first.Get("lat"), first.Get("lon")
	if !lat.Exists() || !lon.Exists() {
		return Result{}, nil
	}

	return Result{
		Coordinates: models.Coordinates{Longitude: lon.Float(), Latitude: lat.Float()},
		Resolved:    true,
	}, nil
}

func encodeCoordinates(c models.Coordinates) string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}

func decodeCoordinates(s string) (models.Coordinates, error) {
	lon, lat, ok := strings.Cut(s, ",")
	if !ok {
		return models.Coordinates{}, fmt.Errorf("bad cached coordinates %q", s)
	}
	x, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return models.Coordinates{}, err
	}
	y, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return models.Coordinates{}, err
	}
	return models.Coordinates{Longitude: x, Latitude: y}, nil
}
