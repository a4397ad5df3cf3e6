package postgres

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/schedule"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

// applicationRowColumns lines up with applicationSelect.
var applicationRowColumns = []string{
	"id", "application_date", "status", "property_id", "tenant_cognito_id",
	"name", "email", "phone_number", "message", "lease_id",
	"p_id", "p_name", "description", "price_per_month", "security_deposit",
	"application_fee", "photo_urls", "amenities", "highlights",
	"is_pets_allowed", "is_parking_included", "beds", "baths", "square_feet",
	"property_type", "posted_date", "average_rating", "number_of_reviews",
	"location_id", "manager_cognito_id",
	"address",
	"m_id", "m_cognito_id", "m_name", "m_email", "m_phone_number",
	"t_id", "t_cognito_id", "t_name", "t_email", "t_phone_number",
	"ls_id", "ls_start_date", "ls_end_date", "ls_rent", "ls_deposit", "ls_property_id", "ls_tenant_cognito_id",
}

type applicationRow struct {
	id         int64
	appliedAt  time.Time
	status     models.ApplicationStatus
	leaseID    int64
	leaseStart time.Time
}

func (r applicationRow) rows() *pgxmock.Rows {
	leaseID := r.leaseID
	start := r.leaseStart
	end := schedule.LeaseEnd(start)
	rent, deposit := 1500.0, 500.0
	propertyID := int64(10)
	tenant := "t1"

	return pgxmock.NewRows(applicationRowColumns).AddRow(
		r.id, r.appliedAt, r.status, int64(10), "t1",
		"Tia", "tia@example.com", "555", (*string)(nil), &leaseID,
		int64(10), "Loft", "Bright loft", 1500.0, 500.0,
		50.0, []string{}, []string{"WiFi"}, []string{"Quiet"},
		true, false, 2, 1.5, 900,
		models.PropertyTypeApartment, r.appliedAt, (*float64)(nil), (*int)(nil),
		int64(3), "m1",
		"1 Main St",
		int64(1), "m1", "Mia", "mia@example.com", "555",
		int64(2), "t1", "Tia", "tia@example.com", "555",
		&leaseID, &start, &end, &rent, &deposit, &propertyID, &tenant,
	)
}
