package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/civic-billing/internal/domain"
	customError "github.com/segyhp/civic-billing/pkg/errors"
)

const selectPaymentHistory = `
	SELECT p.id, p.citizen_id, p.bill_id, p.amount, p.payment_method, p.transaction_id, p.receipt_number,
		p.status, p.created_at, b.service_type, b.bill_number, b.billing_period
	FROM payments p
	JOIN bills b ON p.bill_id = b.id
`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetByID(ctx context.Context, paymentID uuid.UUID) (*domain.PaymentHistoryEntry, error) {
	var entry domain.PaymentHistoryEntry
	err := r.db.GetContext(ctx, &entry, selectPaymentHistory+` WHERE p.id = $1`, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *paymentRepository) GetByCitizenID(ctx context.Context, citizenID string) ([]*domain.PaymentHistoryEntry, error) {
	entries := make([]*domain.PaymentHistoryEntry, 0)
	err := r.db.SelectContext(ctx, &entries, selectPaymentHistory+` WHERE p.citizen_id = $1 ORDER BY p.created_at DESC`, citizenID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
