package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/civic-billing/internal/domain"
)

// Sequence names used for human readable identifiers.
const (
	SequenceBillNumber  = "bill_number"
	SequenceTransaction = "transaction_id"
	SequenceReceipt     = "receipt_number"
)

// CitizenRepository reads the citizen registry. Billing never writes it.
type CitizenRepository interface {
	// GetByID returns ErrNotFound when the citizen does not exist
	GetByID(ctx context.Context, citizenID string) (*domain.Citizen, error)

	// List returns every registered citizen
	List(ctx context.Context) ([]*domain.Citizen, error)
}

// BillRepository defines the interface for bill data operations
type BillRepository interface {
	// Create persists a new pending bill
	Create(ctx context.Context, bill *domain.Bill) error

	// GetByID retrieves a bill, ErrNotFound if missing
	GetByID(ctx context.Context, billID uuid.UUID) (*domain.Bill, error)

	// List returns stored bills matching the filter, ordered by due date.
	// Status filtering is on the stored status only.
	List(ctx context.Context, filter domain.BillFilter) ([]*domain.Bill, error)

	// MarkPaid moves a pending bill to paid and records the payment in one
	// atomic step. It returns ErrAlreadyPaid if the bill was not pending.
	MarkPaid(ctx context.Context, billID uuid.UUID, payment *domain.Payment) error

	// Summary aggregates bill counts; overdue is evaluated against asOf
	Summary(ctx context.Context, asOf time.Time) (*domain.BillSummary, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// GetByID retrieves a payment joined with its bill
	GetByID(ctx context.Context, paymentID uuid.UUID) (*domain.PaymentHistoryEntry, error)

	// GetByCitizenID retrieves all payments of a citizen, newest first
	GetByCitizenID(ctx context.Context, citizenID string) ([]*domain.PaymentHistoryEntry, error)
}

// NotificationRepository stores in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
}

// SequenceRepository hands out monotonically increasing numbers per name.
// Numbers are never reused.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}
