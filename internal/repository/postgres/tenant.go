package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
)

type TenantStore struct {
	pool DB
}

func NewTenantStore(pool DB) *TenantStore {
	return &TenantStore{pool: pool}
}

func (s *TenantStore) GetByCognitoID(ctx context.Context, cognitoID string) (*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants t
		WHERE t.cognito_id = $1`

	var t models.Tenant
	err := s.pool.QueryRow(ctx, query, cognitoID).Scan(tenantDest(&t)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	t.Favorites, err = s.favorites(ctx, cognitoID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TenantStore) favorites(ctx context.Context, cognitoID string) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties p
		JOIN tenant_favorites f ON f.property_id = p.id
		WHERE f.tenant_cognito_id = $1
		ORDER BY p.id`

	rows, err := s.pool.Query(ctx, query, cognitoID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]models.Property, 0)
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(propertyDest(&p)...); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return favorites, nil
}

func (s *TenantStore) Create(ctx context.Context, t models.Tenant) (*models.Tenant, error) {
	query := `
		INSERT INTO tenants (cognito_id, name, email, phone_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id, cognito_id, name, email, phone_number`

	var out models.Tenant
	err := s.pool.QueryRow(ctx, query, t.CognitoID, t.Name, t.Email, t.PhoneNumber).Scan(tenantDest(&out)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert tenant: %w", err)
	}
	return &out, nil
}

func (s *TenantStore) Update(ctx context.Context, cognitoID string, t models.Tenant) (*models.Tenant, error) {
	query := `
		UPDATE tenants
		SET name = $2, email = $3, phone_number = $4
		WHERE cognito_id = $1
		RETURNING id, cognito_id, name, email, phone_number`

	var out models.Tenant
	err := s.pool.QueryRow(ctx, query, cognitoID, t.Name, t.Email, t.PhoneNumber).Scan(tenantDest(&out)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	return &out, nil
}

func (s *TenantStore) AddFavorite(ctx context.Context, cognitoID string, propertyID int64) (*models.Tenant, error) {
	exists, err := s.exists(ctx, cognitoID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.NotFound("Tenant")
	}

	// The primary key makes the duplicate check atomic: two concurrent adds
	// cannot both insert, and the loser sees zero rows affected.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO tenant_favorites (tenant_cognito_id, property_id)
		VALUES ($1, $2)
		ON CONFLICT (tenant_cognito_id, property_id) DO NOTHING`,
		cognitoID, propertyID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, repository.NotFound(foreignKeyEntity(err))
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrAlreadyFavorite
	}

	return s.GetByCognitoID(ctx, cognitoID)
}

func (s *TenantStore) RemoveFavorite(ctx context.Context, cognitoID string, propertyID int64) (*models.Tenant, error) {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM tenant_favorites
		WHERE tenant_cognito_id = $1 AND property_id = $2`,
		cognitoID, propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}

	t, err := s.GetByCognitoID(ctx, cognitoID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, repository.NotFound("Tenant")
	}
	return t, nil
}

func (s *TenantStore) exists(ctx context.Context, cognitoID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE cognito_id = $1)`, cognitoID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tenant: %w", err)
	}
	return exists, nil
}
