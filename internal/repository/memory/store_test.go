package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/civic-billing/internal/domain"
	customError "github.com/segyhp/civic-billing/pkg/errors"
)

func newBill(number string, due time.Time) *domain.Bill {
	return &domain.Bill{
		ID:          uuid.New(),
		BillNumber:  number,
		CitizenID:   "citizen-1",
		ServiceType: domain.ServiceWater,
		Amount:      decimal.NewFromInt(54),
		DueDate:     due,
		Status:      domain.BillStatusPending,
		CreatedAt:   time.Now(),
	}
}

func newPayment(bill *domain.Bill, txID string) *domain.Payment {
	return &domain.Payment{
		ID:            uuid.New(),
		CitizenID:     bill.CitizenID,
		BillID:        bill.ID,
		Amount:        bill.Amount,
		PaymentMethod: domain.PaymentMethodUPI,
		TransactionID: txID,
		ReceiptNumber: "RCP000001",
		Status:        domain.PaymentStatusSuccess,
		CreatedAt:     time.Now(),
	}
}

func TestStore_MarkPaid(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	bills := store.Bills()

	bill := newBill("BILL0000001", time.Now())
	require.NoError(t, bills.Create(ctx, bill))

	first := newPayment(bill, "TXN1")
	require.NoError(t, bills.MarkPaid(ctx, bill.ID, first))

	err := bills.MarkPaid(ctx, bill.ID, newPayment(bill, "TXN2"))
	assert.ErrorIs(t, err, customError.ErrAlreadyPaid)

	stored, err := bills.GetByID(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusPaid, stored.Status)
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, "TXN1", *stored.TransactionID)

	history, err := store.Payments().GetByCitizenID(ctx, bill.CitizenID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, bill.BillNumber, history[0].BillNumber)

	err = bills.MarkPaid(ctx, uuid.New(), first)
	assert.ErrorIs(t, err, customError.ErrNotFound)
}

func TestStore_MarkPaidConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	bills := store.Bills()

	bill := newBill("BILL0000001", time.Now())
	require.NoError(t, bills.Create(ctx, bill))

	const payers = 16
	var wg sync.WaitGroup
	errs := make(chan error, payers)

	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- bills.MarkPaid(ctx, bill.ID, newPayment(bill, uuid.NewString()))
		}()
	}
	wg.Wait()
	close(errs)

	var ok, alreadyPaid int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, customError.ErrAlreadyPaid):
			alreadyPaid++
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, payers-1, alreadyPaid)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	bill := newBill("BILL0000001", time.Now())
	require.NoError(t, store.Bills().Create(ctx, bill))

	bill.Amount = decimal.NewFromInt(1)
	stored, err := store.Bills().GetByID(ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(54)))

	stored.Status = domain.BillStatusPaid
	again, err := store.Bills().GetByID(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusPending, again.Status)
}

func TestStore_RejectsDuplicateBillNumber(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Bills().Create(ctx, newBill("BILL0000001", time.Now())))
	err := store.Bills().Create(ctx, newBill("BILL0000001", time.Now()))
	assert.ErrorIs(t, err, customError.ErrValidation)
}

func TestStore_ListAndSummary(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	past := newBill("BILL0000001", now.AddDate(0, 0, -3))
	future := newBill("BILL0000002", now.AddDate(0, 0, 3))
	paid := newBill("BILL0000003", now.AddDate(0, 0, -10))
	other := newBill("BILL0000004", now)
	other.CitizenID = "citizen-2"
	other.ServiceType = domain.ServiceGas

	for _, b := range []*domain.Bill{future, past, paid, other} {
		require.NoError(t, store.Bills().Create(ctx, b))
	}
	require.NoError(t, store.Bills().MarkPaid(ctx, paid.ID, newPayment(paid, "TXN1")))

	list, err := store.Bills().List(ctx, domain.BillFilter{CitizenID: "citizen-1"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "BILL0000003", list[0].BillNumber)
	assert.Equal(t, "BILL0000001", list[1].BillNumber)
	assert.Equal(t, "BILL0000002", list[2].BillNumber)

	list, err = store.Bills().List(ctx, domain.BillFilter{ServiceType: domain.ServiceGas})
	require.NoError(t, err)
	require.Len(t, list, 1)

	summary, err := store.Bills().Summary(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalBills)
	assert.Equal(t, 2, summary.Pending)
	assert.Equal(t, 1, summary.Overdue)
	assert.Equal(t, 1, summary.Paid)
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(54)))
}

func TestStore_Sequences(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	a1, _ := store.Next(ctx, "a")
	a2, _ := store.Next(ctx, "a")
	b1, _ := store.Next(ctx, "b")

	assert.Equal(t, int64(1), a1)
	assert.Equal(t, int64(2), a2)
	assert.Equal(t, int64(1), b1)
}
