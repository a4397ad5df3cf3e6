package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
	"github.com/rj-tabelon/rentalrabbit/internal/schedule"
)

type ApplicationStore struct {
	pool DB
}

func NewApplicationStore(pool DB) *ApplicationStore {
	return &ApplicationStore{pool: pool}
}

const applicationColumns = `
	a.id, a.application_date, a.status::text, a.property_id, a.tenant_cognito_id,
	a.name, a.email, a.phone_number, a.message, a.lease_id`

// applicationSelect joins everything an application response embeds. The
// lease join differs: listings show the latest lease for the tenant and
// property, single reads show the lease the application references.
func applicationSelect(leaseJoin string) string {
	return `
		SELECT ` + applicationColumns + `, ` + propertyColumns + `, l.address, ` +
		managerColumns + `, ` + tenantColumns + `, ` + leaseColumns + `
		FROM applications a
		JOIN properties p ON p.id = a.property_id
		JOIN locations l ON l.id = p.location_id
		JOIN managers m ON m.cognito_id = p.manager_cognito_id
		JOIN tenants t ON t.cognito_id = a.tenant_cognito_id
		` + leaseJoin
}

const referencedLeaseJoin = `LEFT JOIN leases ls ON ls.id = a.lease_id`

const latestLeaseJoin = `LEFT JOIN LATERAL (
			SELECT * FROM leases
			WHERE tenant_cognito_id = a.tenant_cognito_id AND property_id = a.property_id
			ORDER BY start_date DESC, id DESC
			LIMIT 1
		) ls ON TRUE`

// nullLease scans leaseColumns from an outer join.
type nullLease struct {
	ID              *int64
	StartDate       *time.Time
	EndDate         *time.Time
	Rent            *float64
	Deposit         *float64
	PropertyID      *int64
	TenantCognitoID *string
}

func (n *nullLease) dest() []any {
	return []any{&n.ID, &n.StartDate, &n.EndDate, &n.Rent, &n.Deposit, &n.PropertyID, &n.TenantCognitoID}
}

func (n *nullLease) lease() *models.Lease {
	if n.ID == nil {
		return nil
	}
	return &models.Lease{
		ID:              *n.ID,
		StartDate:       *n.StartDate,
		EndDate:         *n.EndDate,
		Rent:            *n.Rent,
		Deposit:         *n.Deposit,
		PropertyID:      *n.PropertyID,
		TenantCognitoID: *n.TenantCognitoID,
	}
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	var p models.Property
	var m models.Manager
	var t models.Tenant
	var ls nullLease

	dest := []any{
		&a.ID, &a.ApplicationDate, &a.Status, &a.PropertyID, &a.TenantCognitoID,
		&a.Name, &a.Email, &a.PhoneNumber, &a.Message, &a.LeaseID,
	}
	dest = append(dest, propertyDest(&p)...)
	dest = append(dest, &p.Address)
	dest = append(dest, managerDest(&m)...)
	dest = append(dest, tenantDest(&t)...)
	dest = append(dest, ls.dest()...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	a.Property = &p
	a.Manager = &m
	a.Tenant = &t
	a.Lease = ls.lease()
	return &a, nil
}

func getApplication(ctx context.Context, q querier, id int64) (*models.Application, error) {
	query := applicationSelect(referencedLeaseJoin) + `
		WHERE a.id = $1`

	a, err := scanApplication(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.NotFound("Application")
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

func insertLease(ctx context.Context, tx pgx.Tx, start time.Time, rent, deposit float64, propertyID int64, tenantCognitoID string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO leases (start_date, end_date, rent, deposit, property_id, tenant_cognito_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		start, schedule.LeaseEnd(start), rent, deposit, propertyID, tenantCognitoID,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, repository.NotFound(foreignKeyEntity(err))
		}
		return 0, fmt.Errorf("insert lease: %w", err)
	}
	return id, nil
}

func (s *ApplicationStore) Create(ctx context.Context, in models.NewApplication) (*models.Application, error) {
	var created *models.Application

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var rent, deposit float64
		err := tx.QueryRow(ctx, `
			SELECT price_per_month, security_deposit
			FROM properties
			WHERE id = $1`, in.PropertyID,
		).Scan(&rent, &deposit)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repository.NotFound("Property")
			}
			return fmt.Errorf("get property terms: %w", err)
		}

		leaseID, err := insertLease(ctx, tx, in.LeaseStart, rent, deposit, in.PropertyID, in.TenantCognitoID)
		if err != nil {
			return err
		}

		var id int64
		err = tx.QueryRow(ctx, `
			INSERT INTO applications (
				application_date, status, property_id, tenant_cognito_id,
				name, email, phone_number, message, lease_id
			)
			VALUES ($1, 'Pending', $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			in.ApplicationDate, in.PropertyID, in.TenantCognitoID,
			in.Name, in.Email, in.PhoneNumber, in.Message, leaseID,
		).Scan(&id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return repository.NotFound(foreignKeyEntity(err))
			}
			return fmt.Errorf("insert application: %w", err)
		}

		created, err = getApplication(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateStatus locks the application row so two managers deciding at once
// serialize; the loser sees a non-Pending status and gets
// ErrApplicationClosed.
//
// Approval replaces the provisional lease written at submission with one
// starting at decidedAt. The provisional lease is dropped unless payments
// already reference it.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus, decidedAt time.Time) (*models.Application, error) {
	var updated *models.Application

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var (
			current         models.ApplicationStatus
			propertyID      int64
			tenantCognitoID string
			provisional     *int64
		)
		err := tx.QueryRow(ctx, `
			SELECT status::text, property_id, tenant_cognito_id, lease_id
			FROM applications
			WHERE id = $1
			FOR UPDATE`, id,
		).Scan(&current, &propertyID, &tenantCognitoID, &provisional)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repository.NotFound("Application")
			}
			return fmt.Errorf("lock application: %w", err)
		}
		if current != models.ApplicationPending {
			return repository.ErrApplicationClosed
		}

		if status != models.ApplicationApproved {
			_, err := tx.Exec(ctx, `
				UPDATE applications SET status = $2::application_status WHERE id = $1`,
				id, string(status),
			)
			if err != nil {
				return fmt.Errorf("update application status: %w", err)
			}
			updated, err = getApplication(ctx, tx, id)
			return err
		}

		var rent, deposit float64
		err = tx.QueryRow(ctx, `
			SELECT price_per_month, security_deposit
			FROM properties
			WHERE id = $1`, propertyID,
		).Scan(&rent, &deposit)
		if err != nil {
			return fmt.Errorf("get property terms: %w", err)
		}

		leaseID, err := insertLease(ctx, tx, decidedAt, rent, deposit, propertyID, tenantCognitoID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO property_residents (tenant_cognito_id, property_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			tenantCognitoID, propertyID,
		)
		if err != nil {
			return fmt.Errorf("add resident: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE applications
			SET status = $2::application_status, lease_id = $3
			WHERE id = $1`,
			id, string(status), leaseID,
		)
		if err != nil {
			return fmt.Errorf("approve application: %w", err)
		}

		if provisional != nil {
			_, err = tx.Exec(ctx, `
				DELETE FROM leases
				WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM payments WHERE lease_id = $1)`,
				*provisional,
			)
			if err != nil {
				return fmt.Errorf("drop provisional lease: %w", err)
			}
		}

		updated, err = getApplication(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *ApplicationStore) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	var p predicate
	if filter.UserID != "" {
		switch filter.UserType {
		case "tenant":
			p.and("a.tenant_cognito_id = ?", filter.UserID)
		case "manager":
			p.and("p.manager_cognito_id = ?", filter.UserID)
		}
	}

	query := applicationSelect(latestLeaseJoin) + p.where() + `
		ORDER BY a.application_date DESC, a.id DESC`

	rows, err := s.pool.Query(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	applications := make([]models.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		applications = append(applications, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}

	return applications, nil
}
