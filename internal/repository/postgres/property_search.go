package postgres

import (
	"strconv"
	"strings"

	"github.com/rj-tabelon/rentalrabbit/internal/geo"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
)

// predicate folds optional clauses into one AND-ed WHERE. Clauses are
// written with ? placeholders, renumbered to $n as they are added, so
// every value is bound and nothing user-supplied reaches the SQL text.
// An empty predicate renders no WHERE at all.
type predicate struct {
	clauses []string
	args    []any
}

func (p *predicate) and(clause string, args ...any) {
	var b strings.Builder
	next := 0
	for _, r := range clause {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		p.args = append(p.args, args[next])
		next++
		b.WriteString("$")
		b.WriteString(strconv.Itoa(len(p.args)))
	}
	p.clauses = append(p.clauses, b.String())
}

func (p *predicate) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(p.clauses, "\n  AND ")
}

// searchSelect expands the location point with ST_X/ST_Y so the search
// path never has to parse WKT.
const searchSelect = `
	SELECT ` + propertyColumns + `,
		l.id, l.address, l.city, l.state, l.country, l.postal_code,
		ST_X(l.coordinates::geometry), ST_Y(l.coordinates::geometry), l.geocoded
	FROM properties p
	JOIN locations l ON p.location_id = l.id`

// buildPropertySearch turns a filter into SQL and its bound arguments.
func buildPropertySearch(f models.PropertyFilter) (string, []any) {
	var p predicate

	if len(f.FavoriteIDs) > 0 {
		p.and("p.id = ANY(?)", f.FavoriteIDs)
	}
	if f.PriceMin != nil {
		p.and("p.price_per_month >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		p.and("p.price_per_month <= ?", *f.PriceMax)
	}
	if f.Beds != nil {
		p.and("p.beds >= ?", *f.Beds)
	}
	if f.Baths != nil {
		p.and("p.baths >= ?", *f.Baths)
	}
	if f.SquareFeetMin != nil {
		p.and("p.square_feet >= ?", *f.SquareFeetMin)
	}
	if f.SquareFeetMax != nil {
		p.and("p.square_feet <= ?", *f.SquareFeetMax)
	}
	if f.PropertyType != "" {
		p.and("p.property_type = ?::property_type", string(f.PropertyType))
	}
	if len(f.Amenities) > 0 {
		p.and("p.amenities @> ?::text[]", f.Amenities)
	}
	if f.AvailableFrom != nil {
		p.and(`EXISTS (
		SELECT 1 FROM leases al
		WHERE al.property_id = p.id AND al.start_date <= ?
	)`, *f.AvailableFrom)
	}
	if f.Latitude != nil && f.Longitude != nil {
		p.and(`ST_DWithin(
		l.coordinates::geometry,
		ST_SetSRID(ST_MakePoint(?, ?), 4326),
		?
	)`, *f.Longitude, *f.Latitude, geo.SearchRadiusDegrees)
	}

	return searchSelect + p.where(), p.args
}
