package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/civic-billing/internal/domain"
	customError "github.com/segyhp/civic-billing/pkg/errors"
)

type citizenRepository struct {
	db *sqlx.DB
}

func NewCitizenRepository(db *sqlx.DB) CitizenRepository {
	return &citizenRepository{db: db}
}

func (r *citizenRepository) GetByID(ctx context.Context, citizenID string) (*domain.Citizen, error) {
	query := `
		SELECT id, mobile, COALESCE(name, '') AS name, COALESCE(email, '') AS email,
			COALESCE(address, '') AS address, COALESCE(city, '') AS city, created_at
		FROM citizens
		WHERE id = $1
	`

	var citizen domain.Citizen
	err := r.db.GetContext(ctx, &citizen, query, citizenID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &citizen, nil
}

func (r *citizenRepository) List(ctx context.Context) ([]*domain.Citizen, error) {
	query := `
		SELECT id, mobile, COALESCE(name, '') AS name, COALESCE(email, '') AS email,
			COALESCE(address, '') AS address, COALESCE(city, '') AS city, created_at
		FROM citizens
		ORDER BY created_at
	`

	citizens := make([]*domain.Citizen, 0)
	if err := r.db.SelectContext(ctx, &citizens, query); err != nil {
		return nil, err
	}

	return citizens, nil
}
