// Package gateway defines the payment gateway contract used by bill payment.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/segyhp/civic-billing/internal/domain"
	"github.com/segyhp/civic-billing/internal/repository"
	"github.com/segyhp/civic-billing/pkg/utils"
)

// Charge is what the gateway is asked to collect.
type Charge struct {
	BillNumber    string
	CitizenID     string
	Amount        decimal.Decimal
	PaymentMethod domain.PaymentMethod
}

// Confirmation identifies a collected charge.
type Confirmation struct {
	TransactionID string
	ReceiptNumber string
}

type PaymentGateway interface {
	Collect(ctx context.Context, charge Charge) (Confirmation, error)
}

// MockGateway approves every charge without contacting a processor. It only
// mints identifiers.
type MockGateway struct {
	sequences repository.SequenceRepository
}

func NewMockGateway(sequences repository.SequenceRepository) *MockGateway {
	return &MockGateway{sequences: sequences}
}

func (g *MockGateway) Collect(ctx context.Context, _ Charge) (Confirmation, error) {
	txSeq, err := g.sequences.Next(ctx, repository.SequenceTransaction)
	if err != nil {
		return Confirmation{}, err
	}

	receiptSeq, err := g.sequences.Next(ctx, repository.SequenceReceipt)
	if err != nil {
		return Confirmation{}, err
	}

	return Confirmation{
		TransactionID: utils.FormatSequence("TXN", txSeq, 9),
		ReceiptNumber: utils.FormatSequence("RCP", receiptSeq, 6),
	}, nil
}
