package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
)

type PropertyStore struct {
	pool DB
}

func NewPropertyStore(pool DB) *PropertyStore {
	return &PropertyStore{pool: pool}
}

func (s *PropertyStore) Search(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	query, args := buildPropertySearch(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search properties: %w", err)
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	for rows.Next() {
		var p models.Property
		var loc models.Location
		dest := append(propertyDest(&p),
			&loc.ID, &loc.Address, &loc.City, &loc.State, &loc.Country, &loc.PostalCode,
			&loc.Coordinates.Longitude, &loc.Coordinates.Latitude, &loc.Geocoded,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		p.Location = &loc
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}

	return properties, nil
}

func (s *PropertyStore) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `, ` + locationColumns + `
		FROM properties p
		JOIN locations l ON p.location_id = l.id
		WHERE p.id = $1`

	var p models.Property
	var w wktLocation
	err := s.pool.QueryRow(ctx, query, id).Scan(append(propertyDest(&p), w.dest()...)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	if p.Location, err = w.location(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PropertyStore) ListByManager(ctx context.Context, managerCognitoID string) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `, ` + locationColumns + `
		FROM properties p
		JOIN locations l ON p.location_id = l.id
		WHERE p.manager_cognito_id = $1
		ORDER BY p.posted_date DESC`

	properties, err := queryPropertiesWithLocation(ctx, s.pool, query, managerCognitoID)
	if err != nil {
		return nil, fmt.Errorf("list manager properties: %w", err)
	}
	return properties, nil
}

func (s *PropertyStore) ListResidences(ctx context.Context, tenantCognitoID string) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `, ` + locationColumns + `
		FROM properties p
		JOIN locations l ON p.location_id = l.id
		JOIN property_residents r ON r.property_id = p.id
		WHERE r.tenant_cognito_id = $1
		ORDER BY p.id`

	properties, err := queryPropertiesWithLocation(ctx, s.pool, query, tenantCognitoID)
	if err != nil {
		return nil, fmt.Errorf("list residences: %w", err)
	}
	return properties, nil
}

func (s *PropertyStore) Create(ctx context.Context, p models.Property, loc models.Location) (*models.Property, error) {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO locations (address, city, state, country, postal_code, coordinates, geocoded)
			VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography, $8)
			RETURNING id`,
			loc.Address, loc.City, loc.State, loc.Country, loc.PostalCode,
			loc.Coordinates.Longitude, loc.Coordinates.Latitude, loc.Geocoded,
		).Scan(&loc.ID)
		if err != nil {
			return fmt.Errorf("insert location: %w", err)
		}

		p.LocationID = loc.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO properties (
				name, description, price_per_month, security_deposit, application_fee,
				photo_urls, amenities, highlights, is_pets_allowed, is_parking_included,
				beds, baths, square_feet, property_type, location_id, manager_cognito_id
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::property_type, $15, $16)
			RETURNING id, posted_date, average_rating, number_of_reviews`,
			p.Name, p.Description, p.PricePerMonth, p.SecurityDeposit, p.ApplicationFee,
			p.PhotoURLs, p.Amenities, p.Highlights, p.IsPetsAllowed, p.IsParkingIncluded,
			p.Beds, p.Baths, p.SquareFeet, string(p.PropertyType), p.LocationID, p.ManagerCognitoID,
		).Scan(&p.ID, &p.PostedDate, &p.AverageRating, &p.NumberOfReviews)
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.NotFound("Manager")
			}
			return fmt.Errorf("insert property: %w", err)
		}

		var m models.Manager
		err = tx.QueryRow(ctx, `
			SELECT `+managerColumns+`
			FROM managers m
			WHERE m.cognito_id = $1`, p.ManagerCognitoID,
		).Scan(managerDest(&m)...)
		if err != nil {
			return fmt.Errorf("get property manager: %w", err)
		}
		p.Manager = &m
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.Location = &loc
	return &p, nil
}
