package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rj-tabelon/rentalrabbit/internal/geo"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx, so read helpers work
// both inside and outside a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DB is what the stores run on: *pgxpool.Pool in the server, a pgxmock
// pool in tests.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// inTx runs fn in a transaction. fn's error is returned as is after a
// rollback, so sentinels like repository.ErrApplicationClosed reach the
// caller unwrapped.
func inTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const propertyColumns = `
	p.id, p.name, p.description, p.price_per_month, p.security_deposit,
	p.application_fee, p.photo_urls, p.amenities, p.highlights,
	p.is_pets_allowed, p.is_parking_included, p.beds, p.baths, p.square_feet,
	p.property_type::text, p.posted_date, p.average_rating, p.number_of_reviews,
	p.location_id, p.manager_cognito_id`

// locationColumns reads the point back as WKT; see scanLocationWKT.
const locationColumns = `
	l.id, l.address, l.city, l.state, l.country, l.postal_code,
	ST_AsText(l.coordinates), l.geocoded`

const managerColumns = `m.id, m.cognito_id, m.name, m.email, m.phone_number`

const tenantColumns = `t.id, t.cognito_id, t.name, t.email, t.phone_number`

const leaseColumns = `
	ls.id, ls.start_date, ls.end_date, ls.rent, ls.deposit,
	ls.property_id, ls.tenant_cognito_id`

func propertyDest(p *models.Property) []any {
	return []any{
		&p.ID, &p.Name, &p.Description, &p.PricePerMonth, &p.SecurityDeposit,
		&p.ApplicationFee, &p.PhotoURLs, &p.Amenities, &p.Highlights,
		&p.IsPetsAllowed, &p.IsParkingIncluded, &p.Beds, &p.Baths, &p.SquareFeet,
		&p.PropertyType, &p.PostedDate, &p.AverageRating, &p.NumberOfReviews,
		&p.LocationID, &p.ManagerCognitoID,
	}
}

func managerDest(m *models.Manager) []any {
	return []any{&m.ID, &m.CognitoID, &m.Name, &m.Email, &m.PhoneNumber}
}

func tenantDest(t *models.Tenant) []any {
	return []any{&t.ID, &t.CognitoID, &t.Name, &t.Email, &t.PhoneNumber}
}

func leaseDest(l *models.Lease) []any {
	return []any{&l.ID, &l.StartDate, &l.EndDate, &l.Rent, &l.Deposit, &l.PropertyID, &l.TenantCognitoID}
}

// wktLocation scans locationColumns and converts the WKT point afterwards.
type wktLocation struct {
	loc models.Location
	wkt string
}

func (w *wktLocation) dest() []any {
	return []any{
		&w.loc.ID, &w.loc.Address, &w.loc.City, &w.loc.State, &w.loc.Country,
		&w.loc.PostalCode, &w.wkt, &w.loc.Geocoded,
	}
}

func (w *wktLocation) location() (*models.Location, error) {
	coords, err := geo.ParsePoint(w.wkt)
	if err != nil {
		return nil, err
	}
	loc := w.loc
	loc.Coordinates = coords
	return &loc, nil
}

// queryPropertiesWithLocation runs a query selecting propertyColumns
// followed by locationColumns.
func queryPropertiesWithLocation(ctx context.Context, q querier, query string, args ...any) ([]models.Property, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	for rows.Next() {
		var p models.Property
		var w wktLocation
		if err := rows.Scan(append(propertyDest(&p), w.dest()...)...); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		if p.Location, err = w.location(); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return properties, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// foreignKeyEntity reports which referenced entity a 23503 error points at,
// based on the constraint name Postgres generated (e.g.
// "leases_tenant_cognito_id_fkey").
func foreignKeyEntity(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "Record"
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "tenant_cognito_id"):
		return "Tenant"
	case strings.Contains(pgErr.ConstraintName, "manager_cognito_id"):
		return "Manager"
	case strings.Contains(pgErr.ConstraintName, "property_id"):
		return "Property"
	case strings.Contains(pgErr.ConstraintName, "lease_id"):
		return "Lease"
	}
	return "Record"
}
