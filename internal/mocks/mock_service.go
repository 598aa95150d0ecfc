package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/civic-billing/internal/domain"
)

type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) CreateBill(ctx context.Context, request *domain.CreateBillRequest) (*domain.Bill, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillingService) GenerateSectionBills(ctx context.Context, request *domain.SectionGenerationRequest) (*domain.BatchResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockBillingService) PayBill(ctx context.Context, billID string, method domain.PaymentMethod) (*domain.Receipt, error) {
	args := m.Called(ctx, billID, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

func (m *MockBillingService) GetBill(ctx context.Context, billID string) (*domain.Bill, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillingService) ListBills(ctx context.Context, filter domain.BillFilter) ([]*domain.Bill, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bill), args.Error(1)
}

func (m *MockBillingService) ListPayments(ctx context.Context, citizenID string) ([]*domain.PaymentHistoryEntry, error) {
	args := m.Called(ctx, citizenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentHistoryEntry), args.Error(1)
}

func (m *MockBillingService) GetReceipt(ctx context.Context, paymentID string) (*domain.Receipt, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

func (m *MockBillingService) Summary(ctx context.Context) (*domain.BillSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillSummary), args.Error(1)
}

func (m *MockBillingService) Rates() domain.RateTable {
	args := m.Called()
	return args.Get(0).(domain.RateTable)
}

// NewMockBillingService creates a new mock billing service instance
func NewMockBillingService() *MockBillingService {
	return &MockBillingService{}
}
