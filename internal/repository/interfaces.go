package repository

import (
	"context"
	"time"

	"github.com/rj-tabelon/rentalrabbit/internal/models"
)

// Every method takes the request context so a disconnected client cancels
// its queries. Single-row getters return nil, nil when the row is absent;
// multi-step operations return *NotFoundError instead so callers can tell
// which entity was missing.

// ManagerRepository handles manager profiles.
type ManagerRepository interface {
	GetByCognitoID(ctx context.Context, cognitoID string) (*models.Manager, error)

	// Create returns ErrAlreadyExists when the cognitoId is taken.
	Create(ctx context.Context, m models.Manager) (*models.Manager, error)

	// Update overwrites name, email and phone. Returns nil, nil if absent.
	Update(ctx context.Context, cognitoID string, m models.Manager) (*models.Manager, error)
}

// TenantRepository handles tenant profiles and their favorites.
type TenantRepository interface {
	// GetByCognitoID returns the tenant with Favorites populated.
	GetByCognitoID(ctx context.Context, cognitoID string) (*models.Tenant, error)

	Create(ctx context.Context, t models.Tenant) (*models.Tenant, error)

	Update(ctx context.Context, cognitoID string, t models.Tenant) (*models.Tenant, error)

	// AddFavorite returns ErrAlreadyFavorite on a duplicate and a
	// *NotFoundError when the tenant or property does not exist.
	AddFavorite(ctx context.Context, cognitoID string, propertyID int64) (*models.Tenant, error)

	// RemoveFavorite is a no-op when the property is not a favorite.
	RemoveFavorite(ctx context.Context, cognitoID string, propertyID int64) (*models.Tenant, error)
}

// PropertyRepository handles listings and their locations.
type PropertyRepository interface {
	// Search returns every listing matching all supplied filters, each with
	// its location embedded. Never nil.
	Search(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error)

	GetByID(ctx context.Context, id int64) (*models.Property, error)

	ListByManager(ctx context.Context, managerCognitoID string) ([]models.Property, error)

	// ListResidences returns the properties the tenant currently lives in.
	ListResidences(ctx context.Context, tenantCognitoID string) ([]models.Property, error)

	// Create inserts the location and the property in one transaction and
	// returns the property with Location and Manager populated.
	Create(ctx context.Context, p models.Property, loc models.Location) (*models.Property, error)
}

// LeaseRepository is read-only.
type LeaseRepository interface {
	List(ctx context.Context) ([]models.Lease, error)

	ListPayments(ctx context.Context, leaseID int64) ([]models.Payment, error)
}

// ApplicationRepository runs the application/lease workflow.
type ApplicationRepository interface {
	// Create writes a lease (ApplicationDate to one year later at the
	// property's current rent and deposit) and a Pending application
	// referencing it, atomically.
	Create(ctx context.Context, app models.NewApplication) (*models.Application, error)

	// UpdateStatus decides a Pending application atomically. Approval
	// writes the active lease and makes the tenant a resident.
	UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus, decidedAt time.Time) (*models.Application, error)

	// List returns applications with property, manager, tenant and the most
	// recent lease for the same tenant and property.
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
}
