package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	customError "github.com/segyhp/civic-billing/pkg/errors"
)

type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodWallet     PaymentMethod = "wallet"

	upiAppPrefix = "upi_"
)

func (p PaymentMethod) String() string {
	return string(p)
}

// Validate accepts the fixed methods plus UPI app variants such as "upi_gpay".
func (p PaymentMethod) Validate() error {
	switch p {
	case PaymentMethodUPI, PaymentMethodCard, PaymentMethodNetBanking, PaymentMethodWallet:
		return nil
	}

	if app, ok := strings.CutPrefix(string(p), upiAppPrefix); ok && app != "" {
		return nil
	}

	return customError.WrapValidation("unknown payment method %q", string(p))
}

const PaymentStatusSuccess = "success"

// Payment is the ledger row written together with the bill's paid transition.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CitizenID     string          `json:"citizen_id" db:"citizen_id"`
	BillID        uuid.UUID       `json:"bill_id" db:"bill_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	ReceiptNumber string          `json:"receipt_number" db:"receipt_number"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// PaymentHistoryEntry is a payment joined with the bill it settled.
type PaymentHistoryEntry struct {
	Payment
	ServiceType   ServiceType `json:"service_type" db:"service_type"`
	BillNumber    string      `json:"bill_number" db:"bill_number"`
	BillingPeriod string      `json:"billing_period,omitempty" db:"billing_period"`
}

// Receipt is returned to the payer after a successful payment.
type Receipt struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	TransactionID string          `json:"transaction_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	BillNumber    string          `json:"bill_number"`
	ServiceType   ServiceType     `json:"service_type"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaidAt        time.Time       `json:"paid_at"`
}

func ReceiptFromEntry(e *PaymentHistoryEntry) *Receipt {
	return &Receipt{
		PaymentID:     e.ID,
		TransactionID: e.TransactionID,
		ReceiptNumber: e.ReceiptNumber,
		Amount:        e.Amount,
		BillNumber:    e.BillNumber,
		ServiceType:   e.ServiceType,
		PaymentMethod: e.PaymentMethod,
		PaidAt:        e.CreatedAt,
	}
}
