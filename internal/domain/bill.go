package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/civic-billing/pkg/utils"
)

// BillStatus is the lifecycle state of a bill. Only pending and paid are
// ever stored; overdue is derived at read time.
type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusPaid    BillStatus = "paid"
	BillStatusOverdue BillStatus = "overdue"
)

func (s BillStatus) String() string {
	return string(s)
}

func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusPaid, BillStatusOverdue:
		return true
	}

	return false
}

// Bill represents a priced obligation of a citizen for one service period.
type Bill struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	BillNumber     string           `json:"bill_number" db:"bill_number"`
	CitizenID      string           `json:"citizen_id" db:"citizen_id"`
	ServiceType    ServiceType      `json:"service_type" db:"service_type"`
	BillingPeriod  string           `json:"billing_period,omitempty" db:"billing_period"`
	ConsumerNumber string           `json:"consumer_number,omitempty" db:"consumer_number"`
	MeterReading   *decimal.Decimal `json:"meter_reading,omitempty" db:"meter_reading"`
	UnitsConsumed  *decimal.Decimal `json:"units_consumed" db:"units_consumed"`
	Amount         decimal.Decimal  `json:"amount" db:"amount"`
	DueDate        time.Time        `json:"due_date" db:"due_date"`
	Status         BillStatus       `json:"status" db:"status"`
	PaidAt         *time.Time       `json:"paid_at,omitempty" db:"paid_at"`
	TransactionID  *string          `json:"transaction_id,omitempty" db:"transaction_id"`
	PaymentMethod  *string          `json:"payment_method,omitempty" db:"payment_method"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// IsOverdue reports whether a still pending bill is past its due date.
func IsOverdue(bill *Bill, now time.Time) bool {
	return bill.Status == BillStatusPending && utils.IsDateOverdue(bill.DueDate, now)
}

// EffectiveStatus is the status callers should see at time now.
func EffectiveStatus(bill *Bill, now time.Time) BillStatus {
	if IsOverdue(bill, now) {
		return BillStatusOverdue
	}
	return bill.Status
}

// WithEffectiveStatus returns a copy of bill carrying its read-time status.
func WithEffectiveStatus(bill *Bill, now time.Time) *Bill {
	view := *bill
	view.Status = EffectiveStatus(bill, now)
	return &view
}

// BillFilter narrows listBills. Zero values match everything.
type BillFilter struct {
	CitizenID   string
	ServiceType ServiceType
	Status      BillStatus
}

// BillSummary backs the admin dashboard.
type BillSummary struct {
	TotalBills int             `json:"total_bills"`
	Pending    int             `json:"pending"`
	Overdue    int             `json:"overdue"`
	Paid       int             `json:"paid"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// DTOs for requests and responses

type CreateBillRequest struct {
	CitizenID      string           `json:"citizen_id" validate:"required"`
	ServiceType    ServiceType      `json:"service_type" validate:"required"`
	UnitsConsumed  *decimal.Decimal `json:"units_consumed,omitempty"`
	DueDate        string           `json:"due_date" validate:"required"`
	BillingPeriod  string           `json:"billing_period,omitempty" validate:"max=50"`
	ConsumerNumber string           `json:"consumer_number,omitempty" validate:"max=50"`
	MeterReading   *decimal.Decimal `json:"meter_reading,omitempty"`
	RateOverride   RateOverride     `json:"rate_override"`
}

// SectionTarget selects which citizens a section run bills.
type SectionTarget string

const (
	TargetAllCitizens SectionTarget = "all_citizens"
	TargetCitizenList SectionTarget = "citizen_ids"
)

type SectionGenerationRequest struct {
	ServiceType   ServiceType      `json:"service_type" validate:"required"`
	BillingPeriod string           `json:"billing_period" validate:"max=50"`
	DueDate       string           `json:"due_date" validate:"required"`
	BaseRate      *decimal.Decimal `json:"base_rate,omitempty"`
	UnitRate      *decimal.Decimal `json:"unit_rate,omitempty"`
	FixedCharges  *decimal.Decimal `json:"fixed_charges,omitempty"`
	Target        SectionTarget    `json:"target" validate:"required,oneof=all_citizens citizen_ids"`
	CitizenIDs    []string         `json:"citizen_ids,omitempty" validate:"required_if=Target citizen_ids,dive,required"`
}

func (r *SectionGenerationRequest) RateOverride() RateOverride {
	return RateOverride{
		BaseRate:     r.BaseRate,
		UnitRate:     r.UnitRate,
		FixedCharges: r.FixedCharges,
	}
}

// BillFailure records a citizen a section run could not bill.
type BillFailure struct {
	CitizenID string `json:"citizen_id"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error"`
	err       error
}

func NewBillFailure(citizenID, code string, err error) BillFailure {
	return BillFailure{CitizenID: citizenID, Code: code, Error: err.Error(), err: err}
}

// Err returns the underlying error, for errors.Is checks by callers.
func (f BillFailure) Err() error {
	return f.err
}

type BatchResult struct {
	TotalBills int           `json:"total_bills"`
	Bills      []*Bill       `json:"bills"`
	Failures   []BillFailure `json:"failures"`
}

type PayBillRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,max=50"`
}
