package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/rj-tabelon/rentalrabbit/internal/geo"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestBuildPropertySearch_NoFilters(t *testing.T) {
	query, args := buildPropertySearch(models.PropertyFilter{})

	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
	assert.Contains(t, query, "JOIN locations l ON p.location_id = l.id")
	assert.Contains(t, query, "ST_X(l.coordinates::geometry)")
}

func TestBuildPropertySearch_EachFilterAddsOneClause(t *testing.T) {
	available := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		filter models.PropertyFilter
		clause string
		args   []any
	}{
		{"favorites", models.PropertyFilter{FavoriteIDs: []int64{1, 2}}, "p.id = ANY($1)", []any{[]int64{1, 2}}},
		{"price min", models.PropertyFilter{PriceMin: ptr(1000.0)}, "p.price_per_month >= $1", []any{1000.0}},
		{"price max", models.PropertyFilter{PriceMax: ptr(3000.0)}, "p.price_per_month <= $1", []any{3000.0}},
		{"beds", models.PropertyFilter{Beds: ptr(2)}, "p.beds >= $1", []any{2}},
		{"baths", models.PropertyFilter{Baths: ptr(1.5)}, "p.baths >= $1", []any{1.5}},
		{"sqft min", models.PropertyFilter{SquareFeetMin: ptr(500)}, "p.square_feet >= $1", []any{500}},
		{"sqft max", models.PropertyFilter{SquareFeetMax: ptr(900)}, "p.square_feet <= $1", []any{900}},
		{"type", models.PropertyFilter{PropertyType: models.PropertyTypeVilla}, "p.property_type = $1::property_type", []any{"Villa"}},
		{"amenities", models.PropertyFilter{Amenities: []string{"Pool", "Gym"}}, "p.amenities @> $1::text[]", []any{[]string{"Pool", "Gym"}}},
		{"available", models.PropertyFilter{AvailableFrom: &available}, "al.start_date <= $1", []any{available}},
		{"radius", models.PropertyFilter{Latitude: ptr(34.05), Longitude: ptr(-118.25)}, "ST_MakePoint($1, $2)", []any{-118.25, 34.05, geo.SearchRadiusDegrees}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args := buildPropertySearch(tc.filter)
			assert.Contains(t, query, "WHERE ")
			assert.NotContains(t, query, "\n  AND ")
			assert.Contains(t, query, tc.clause)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestBuildPropertySearch_RadiusNeedsBothCoordinates(t *testing.T) {
	query, args := buildPropertySearch(models.PropertyFilter{Latitude: ptr(34.05)})
	assert.NotContains(t, query, "ST_DWithin")
	assert.Empty(t, args)
}

func TestBuildPropertySearch_CombinesWithAnd(t *testing.T) {
	query, args := buildPropertySearch(models.PropertyFilter{
		PriceMin:  ptr(1000.0),
		Beds:      ptr(2),
		Amenities: []string{"Pool"},
		Latitude:  ptr(34.05),
		Longitude: ptr(-118.25),
	})

	where := query[strings.Index(query, "WHERE"):]
	assert.Equal(t, 3, strings.Count(where, "\n  AND "))
	assert.Contains(t, where, "p.price_per_month >= $1")
	assert.Contains(t, where, "p.beds >= $2")
	assert.Contains(t, where, "p.amenities @> $3::text[]")
	assert.Contains(t, where, "ST_MakePoint($4, $5)")
	assert.Equal(t, []any{1000.0, 2, []string{"Pool"}, -118.25, 34.05, geo.SearchRadiusDegrees}, args)
}

func TestBuildPropertySearch_ValuesNeverInlined(t *testing.T) {
	query, _ := buildPropertySearch(models.PropertyFilter{
		Amenities: []string{"'; DROP TABLE properties; --"},
	})
	assert.NotContains(t, query, "DROP TABLE")
}

func TestPredicate_Renumbers(t *testing.T) {
	var p predicate
	p.and("a = ?", 1)
	p.and("b BETWEEN ? AND ?", 2, 3)

	assert.Equal(t, "\nWHERE a = $1\n  AND b BETWEEN $2 AND $3", p.where())
	assert.Equal(t, []any{1, 2, 3}, p.args)
}
