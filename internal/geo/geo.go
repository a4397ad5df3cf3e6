// Package geo holds the coordinate helpers shared by the store and the
// geocoder.
package geo

import (
	"fmt"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
)

const (
	// SearchRadiusKm is the fixed radius of a listing search around a point.
	SearchRadiusKm = 1000.0
	// KmPerDegree approximates the length of one degree on the surface.
	KmPerDegree = 111.0
)

// SearchRadiusDegrees is the search radius in the planar degree units that
// ST_DWithin uses on SRID 4326 geometries.
const SearchRadiusDegrees = SearchRadiusKm / KmPerDegree

// ParsePoint reads a WKT point as produced by ST_AsText, e.g.
// "POINT(-118.25 34.05)". X is longitude, Y is latitude.
func ParsePoint(text string) (models.Coordinates, error) {
	pt, err := wkt.UnmarshalPoint(text)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse point %q: %w", text, err)
	}
	return models.Coordinates{Longitude: pt[0], Latitude: pt[1]}, nil
}
