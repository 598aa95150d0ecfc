package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/civic-billing/internal/domain"
	customError "github.com/segyhp/civic-billing/pkg/errors"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const billColumns = `id, bill_number, citizen_id, service_type, billing_period, consumer_number, meter_reading,
	units_consumed, amount, due_date, status, paid_at, transaction_id, payment_method, created_at`

type billRepository struct {
	db *sqlx.DB
}

func NewBillRepository(db *sqlx.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, bill *domain.Bill) error {
	query := `
		INSERT INTO bills (id, bill_number, citizen_id, service_type, billing_period, consumer_number, meter_reading,
			units_consumed, amount, due_date, status, created_at)
		VALUES (:id, :bill_number, :citizen_id, :service_type, :billing_period, :consumer_number, :meter_reading,
			:units_consumed, :amount, :due_date, :status, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, bill)
	return err
}

func (r *billRepository) GetByID(ctx context.Context, billID uuid.UUID) (*domain.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`

	var bill domain.Bill
	err := r.db.GetContext(ctx, &bill, query, billID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &bill, nil
}

func (r *billRepository) List(ctx context.Context, filter domain.BillFilter) ([]*domain.Bill, error) {
	builder := psql.Select(billColumns).From("bills").OrderBy("due_date ASC", "created_at ASC")

	if filter.CitizenID != "" {
		builder = builder.Where(sq.Eq{"citizen_id": filter.CitizenID})
	}
	if filter.ServiceType != "" {
		builder = builder.Where(sq.Eq{"service_type": filter.ServiceType})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	bills := make([]*domain.Bill, 0)
	if err = r.db.SelectContext(ctx, &bills, query, args...); err != nil {
		return nil, err
	}

	return bills, nil
}

func (r *billRepository) MarkPaid(ctx context.Context, billID uuid.UUID, payment *domain.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The status guard makes concurrent payers race on the row lock; only
	// the first UPDATE sees a pending row.
	result, err := tx.ExecContext(ctx, `
		UPDATE bills
		SET status = $2, paid_at = $3, transaction_id = $4, payment_method = $5
		WHERE id = $1 AND status = $6
	`,
		billID,
		domain.BillStatusPaid,
		payment.CreatedAt,
		payment.TransactionID,
		payment.PaymentMethod,
		domain.BillStatusPending,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		var status domain.BillStatus
		err = tx.GetContext(ctx, &status, `SELECT status FROM bills WHERE id = $1`, billID)
		if errors.Is(err, sql.ErrNoRows) {
			return customError.ErrNotFound
		}
		if err != nil {
			return err
		}
		return customError.ErrAlreadyPaid
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO payments (id, citizen_id, bill_id, amount, payment_method, transaction_id, receipt_number, status, created_at)
		VALUES (:id, :citizen_id, :bill_id, :amount, :payment_method, :transaction_id, :receipt_number, :status, :created_at)
	`, payment)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *billRepository) Summary(ctx context.Context, asOf time.Time) (*domain.BillSummary, error) {
	day := asOf.UTC().Format("2006-01-02")

	query, args, err := psql.Select("COUNT(*) AS total_bills").
		Column(sq.Expr("COUNT(*) FILTER (WHERE status = 'pending' AND due_date >= CAST(? AS date)) AS pending", day)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE status = 'pending' AND due_date < CAST(? AS date)) AS overdue", day)).
		Column("COUNT(*) FILTER (WHERE status = 'paid') AS paid").
		From("bills").
		ToSql()
	if err != nil {
		return nil, err
	}

	var row struct {
		TotalBills int `db:"total_bills"`
		Pending    int `db:"pending"`
		Overdue    int `db:"overdue"`
		Paid       int `db:"paid"`
	}
	if err = r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, err
	}

	summary := &domain.BillSummary{
		TotalBills: row.TotalBills,
		Pending:    row.Pending,
		Overdue:    row.Overdue,
		Paid:       row.Paid,
	}

	err = r.db.GetContext(ctx, &summary.Revenue,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = $1`, domain.PaymentStatusSuccess)
	if err != nil {
		return nil, err
	}

	return summary, nil
}
