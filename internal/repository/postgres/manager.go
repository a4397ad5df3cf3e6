package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
)

type ManagerStore struct {
	pool DB
}

func NewManagerStore(pool DB) *ManagerStore {
	return &ManagerStore{pool: pool}
}

func (s *ManagerStore) GetByCognitoID(ctx context.Context, cognitoID string) (*models.Manager, error) {
	query := `
		SELECT ` + managerColumns + `
		FROM managers m
		WHERE m.cognito_id = $1`

	var m models.Manager
	err := s.pool.QueryRow(ctx, query, cognitoID).Scan(managerDest(&m)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manager: %w", err)
	}
	return &m, nil
}

func (s *ManagerStore) Create(ctx context.Context, m models.Manager) (*models.Manager, error) {
	query := `
		INSERT INTO managers (cognito_id, name, email, phone_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id, cognito_id, name, email, phone_number`

	var out models.Manager
	err := s.pool.QueryRow(ctx, query, m.CognitoID, m.Name, m.Email, m.PhoneNumber).Scan(managerDest(&out)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert manager: %w", err)
	}
	return &out, nil
}

func (s *ManagerStore) Update(ctx context.Context, cognitoID string, m models.Manager) (*models.Manager, error) {
	query := `
		UPDATE managers
		SET name = $2, email = $3, phone_number = $4
		WHERE cognito_id = $1
		RETURNING id, cognito_id, name, email, phone_number`

	var out models.Manager
	err := s.pool.QueryRow(ctx, query, cognitoID, m.Name, m.Email, m.PhoneNumber).Scan(managerDest(&out)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update manager: %w", err)
	}
	return &out, nil
}
