package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
)

// anyValue is what the listing UI sends for "no preference".
const anyValue = "any"

// parsePropertyFilter reads the listing search query string. Absent or empty
// parameters are left unset; values that fail to parse are an error.
func parsePropertyFilter(c *gin.Context) (models.PropertyFilter, error) {
	var f models.PropertyFilter
	var err error

	if raw := c.Query("favoriteIds"); raw != "" {
		for _, part := range splitList(raw) {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return f, fmt.Errorf("invalid favoriteIds %q", raw)
			}
			f.FavoriteIDs = append(f.FavoriteIDs, id)
		}
	}

	if f.PriceMin, err = queryFloat(c, "priceMin", false); err != nil {
		return f, err
	}
	if f.PriceMax, err = queryFloat(c, "priceMax", false); err != nil {
		return f, err
	}
	if f.Beds, err = queryInt(c, "beds", true); err != nil {
		return f, err
	}
	if f.Baths, err = queryFloat(c, "baths", true); err != nil {
		return f, err
	}
	if f.SquareFeetMin, err = queryInt(c, "squareFeetMin", false); err != nil {
		return f, err
	}
	if f.SquareFeetMax, err = queryInt(c, "squareFeetMax", false); err != nil {
		return f, err
	}

	if raw := c.Query("propertyType"); raw != "" && raw != anyValue {
		pt := models.PropertyType(raw)
		if !pt.Valid() {
			return f, fmt.Errorf("invalid propertyType %q", raw)
		}
		f.PropertyType = pt
	}

	if raw := c.Query("amenities"); raw != "" && raw != anyValue {
		f.Amenities = splitList(raw)
	}

	if raw := c.Query("availableFrom"); raw != "" && raw != anyValue {
		t, err := parseDate(raw)
		if err != nil {
			return f, fmt.Errorf("invalid availableFrom %q", raw)
		}
		f.AvailableFrom = &t
	}

	lat, err := queryFloat(c, "latitude", false)
	if err != nil {
		return f, err
	}
	lng, err := queryFloat(c, "longitude", false)
	if err != nil {
		return f, err
	}
	// A point needs both halves; one alone is ignored.
	if lat != nil && lng != nil {
		f.Latitude, f.Longitude = lat, lng
	}

	return f, nil
}

func queryFloat(c *gin.Context, key string, allowAny bool) (*float64, error) {
	raw := c.Query(key)
	if raw == "" || (allowAny && raw == anyValue) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &v, nil
}

func queryInt(c *gin.Context, key string, allowAny bool) (*int, error) {
	raw := c.Query(key)
	if raw == "" || (allowAny && raw == anyValue) {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &v, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// splitList splits a comma separated value, trimming and dropping empties.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
