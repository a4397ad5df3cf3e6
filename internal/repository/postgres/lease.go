package postgres

import (
	"context"
	"fmt"

	"github.com/rj-tabelon/rentalrabbit/internal/models"
)

type LeaseStore struct {
	pool DB
}

func NewLeaseStore(pool DB) *LeaseStore {
	return &LeaseStore{pool: pool}
}

// List returns every lease with its tenant and property.
func (s *LeaseStore) List(ctx context.Context) ([]models.Lease, error) {
	query := `
		SELECT ` + leaseColumns + `, ` + tenantColumns + `, ` + propertyColumns + `
		FROM leases ls
		JOIN tenants t ON t.cognito_id = ls.tenant_cognito_id
		JOIN properties p ON p.id = ls.property_id
		ORDER BY ls.start_date DESC, ls.id DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	defer rows.Close()

	leases := make([]models.Lease, 0)
	for rows.Next() {
		var l models.Lease
		var t models.Tenant
		var p models.Property
		dest := append(leaseDest(&l), tenantDest(&t)...)
		dest = append(dest, propertyDest(&p)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan lease: %w", err)
		}
		l.Tenant = &t
		l.Property = &p
		leases = append(leases, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leases: %w", err)
	}

	return leases, nil
}

func (s *LeaseStore) ListPayments(ctx context.Context, leaseID int64) ([]models.Payment, error) {
	query := `
		SELECT id, amount_due, amount_paid, due_date, payment_date, payment_status::text, lease_id
		FROM payments
		WHERE lease_id = $1
		ORDER BY due_date`

	rows, err := s.pool.Query(ctx, query, leaseID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID,
			&p.AmountDue,
			&p.AmountPaid,
			&p.DueDate,
			&p.PaymentDate,
			&p.PaymentStatus,
			&p.LeaseID,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	return payments, nil
}
