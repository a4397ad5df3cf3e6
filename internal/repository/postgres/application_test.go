package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
	"github.com/rj-tabelon/rentalrabbit/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	appliedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now       = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
)

const (
	propertyTermsSQL = `SELECT price_per_month, security_deposit`
	insertLeaseSQL   = `INSERT INTO leases`
	insertAppSQL     = `INSERT INTO applications`
	lockAppSQL       = `FOR UPDATE`
	getAppSQL        = `WHERE a.id = $1`
)

func q(sql string) string { return regexp.QuoteMeta(sql) }

func termsRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"price_per_month", "security_deposit"}).AddRow(1500.0, 500.0)
}

func TestApplicationStore_Create(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q(propertyTermsSQL)).WithArgs(int64(10)).WillReturnRows(termsRows())
	mock.ExpectQuery(q(insertLeaseSQL)).
		WithArgs(now, schedule.LeaseEnd(now), 1500.0, 500.0, int64(10), "t1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(q(insertAppSQL)).
		WithArgs(appliedAt, int64(10), "t1", "Tia", "tia@example.com", "555", pgxmock.AnyArg(), int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(q(getAppSQL)).WithArgs(int64(7)).
		WillReturnRows(applicationRow{id: 7, appliedAt: appliedAt, status: models.ApplicationPending, leaseID: 100, leaseStart: now}.rows())
	mock.ExpectCommit()

	app, err := store.Create(context.Background(), models.NewApplication{
		PropertyID:      10,
		TenantCognitoID: "t1",
		Name:            "Tia",
		Email:           "tia@example.com",
		PhoneNumber:     "555",
		ApplicationDate: appliedAt,
		LeaseStart:      now,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), app.ID)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, appliedAt, app.ApplicationDate)
	require.NotNil(t, app.Lease)
	assert.Equal(t, now, app.Lease.StartDate)
	assert.Equal(t, "1 Main St", app.Property.Address)
	assert.Equal(t, "m1", app.Manager.CognitoID)
}

func TestApplicationStore_Create_UnknownPropertyRollsBack(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q(propertyTermsSQL)).WithArgs(int64(404)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	app, err := store.Create(context.Background(), models.NewApplication{
		PropertyID: 404, TenantCognitoID: "t1", ApplicationDate: now, LeaseStart: now,
	})
	assert.Nil(t, app)
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.EqualError(t, err, "Property not found")
}

func TestApplicationStore_Create_UnknownTenantRollsBack(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q(propertyTermsSQL)).WithArgs(int64(10)).WillReturnRows(termsRows())
	mock.ExpectQuery(q(insertLeaseSQL)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "leases_tenant_cognito_id_fkey"})
	mock.ExpectRollback()

	_, err := store.Create(context.Background(), models.NewApplication{
		PropertyID: 10, TenantCognitoID: "ghost", ApplicationDate: now, LeaseStart: now,
	})
	assert.EqualError(t, err, "Tenant not found")
}

func TestApplicationStore_UpdateStatus_Approve(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)
	provisional := int64(100)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockAppSQL)).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "property_id", "tenant_cognito_id", "lease_id"}).
			AddRow(models.ApplicationPending, int64(10), "t1", &provisional))
	mock.ExpectQuery(q(propertyTermsSQL)).WithArgs(int64(10)).WillReturnRows(termsRows())
	mock.ExpectQuery(q(insertLeaseSQL)).
		WithArgs(now, schedule.LeaseEnd(now), 1500.0, 500.0, int64(10), "t1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(200)))
	mock.ExpectExec(q("INSERT INTO property_residents")).WithArgs("t1", int64(10)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q("SET status = $2::application_status, lease_id = $3")).
		WithArgs(int64(7), "Approved", int64(200)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(q("DELETE FROM leases")).WithArgs(provisional).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(q(getAppSQL)).WithArgs(int64(7)).
		WillReturnRows(applicationRow{id: 7, appliedAt: appliedAt, status: models.ApplicationApproved, leaseID: 200, leaseStart: now}.rows())
	mock.ExpectCommit()

	app, err := store.UpdateStatus(context.Background(), 7, models.ApplicationApproved, now)
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationApproved, app.Status)
	require.NotNil(t, app.LeaseID)
	assert.Equal(t, int64(200), *app.LeaseID)
	assert.Equal(t, now, app.Lease.StartDate)
}

func TestApplicationStore_UpdateStatus_Deny(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)
	provisional := int64(100)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockAppSQL)).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "property_id", "tenant_cognito_id", "lease_id"}).
			AddRow(models.ApplicationPending, int64(10), "t1", &provisional))
	mock.ExpectExec(q("UPDATE applications SET status = $2::application_status WHERE id = $1")).
		WithArgs(int64(7), "Denied").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(q(getAppSQL)).WithArgs(int64(7)).
		WillReturnRows(applicationRow{id: 7, appliedAt: appliedAt, status: models.ApplicationDenied, leaseID: 100, leaseStart: appliedAt}.rows())
	mock.ExpectCommit()

	app, err := store.UpdateStatus(context.Background(), 7, models.ApplicationDenied, now)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationDenied, app.Status)
}

func TestApplicationStore_UpdateStatus_AlreadyDecided(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)
	leaseID := int64(200)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockAppSQL)).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "property_id", "tenant_cognito_id", "lease_id"}).
			AddRow(models.ApplicationApproved, int64(10), "t1", &leaseID))
	mock.ExpectRollback()

	app, err := store.UpdateStatus(context.Background(), 7, models.ApplicationApproved, now)
	assert.Nil(t, app)
	assert.ErrorIs(t, err, repository.ErrApplicationClosed)
}

func TestApplicationStore_UpdateStatus_Missing(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockAppSQL)).WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.UpdateStatus(context.Background(), 99, models.ApplicationDenied, now)
	assert.EqualError(t, err, "Application not found")
}

func TestApplicationStore_UpdateStatus_CommitFailure(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockAppSQL)).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "property_id", "tenant_cognito_id", "lease_id"}).
			AddRow(models.ApplicationPending, int64(10), "t1", (*int64)(nil)))
	mock.ExpectExec(q("UPDATE applications SET status")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(q(getAppSQL)).WithArgs(int64(7)).
		WillReturnRows(applicationRow{id: 7, appliedAt: appliedAt, status: models.ApplicationDenied, leaseID: 100, leaseStart: appliedAt}.rows())
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	_, err := store.UpdateStatus(context.Background(), 7, models.ApplicationDenied, now)
	assert.ErrorContains(t, err, "commit transaction")
}

func TestApplicationStore_List_UsesLatestLease(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)

	mock.ExpectQuery("(?s)" + q("LEFT JOIN LATERAL") + ".*" + q("a.tenant_cognito_id = $1")).
		WithArgs("t1").
		WillReturnRows(applicationRow{id: 7, appliedAt: appliedAt, status: models.ApplicationApproved, leaseID: 200, leaseStart: now}.rows())

	apps, err := store.List(context.Background(), models.ApplicationFilter{UserID: "t1", UserType: "tenant"})
	require.NoError(t, err)

	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].Lease)
	assert.Equal(t, int64(200), apps[0].Lease.ID)
	assert.Equal(t, 1500.0, apps[0].Lease.Rent)
}

func TestApplicationStore_List_ManagerScope(t *testing.T) {
	mock := newMockPool(t)
	store := NewApplicationStore(mock)

	mock.ExpectQuery(q("p.manager_cognito_id = $1")).
		WithArgs("m1").
		WillReturnRows(pgxmock.NewRows(applicationRowColumns))

	apps, err := store.List(context.Background(), models.ApplicationFilter{UserID: "m1", UserType: "manager"})
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}
