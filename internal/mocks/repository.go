package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/civic-billing/internal/domain"
	"github.com/segyhp/civic-billing/internal/gateway"
)

type MockCitizenRepository struct {
	mock.Mock
}

func (m *MockCitizenRepository) GetByID(ctx context.Context, citizenID string) (*domain.Citizen, error) {
	args := m.Called(ctx, citizenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Citizen), args.Error(1)
}

func (m *MockCitizenRepository) List(ctx context.Context) ([]*domain.Citizen, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Citizen), args.Error(1)
}

type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) Create(ctx context.Context, bill *domain.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) GetByID(ctx context.Context, billID uuid.UUID) (*domain.Bill, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) List(ctx context.Context, filter domain.BillFilter) ([]*domain.Bill, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) MarkPaid(ctx context.Context, billID uuid.UUID, payment *domain.Payment) error {
	args := m.Called(ctx, billID, payment)
	return args.Error(0)
}

func (m *MockBillRepository) Summary(ctx context.Context, asOf time.Time) (*domain.BillSummary, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillSummary), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, paymentID uuid.UUID) (*domain.PaymentHistoryEntry, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentHistoryEntry), args.Error(1)
}

func (m *MockPaymentRepository) GetByCitizenID(ctx context.Context, citizenID string) ([]*domain.PaymentHistoryEntry, error) {
	args := m.Called(ctx, citizenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentHistoryEntry), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

type MockSequenceRepository struct {
	mock.Mock
}

func (m *MockSequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Collect(ctx context.Context, charge gateway.Charge) (gateway.Confirmation, error) {
	args := m.Called(ctx, charge)
	return args.Get(0).(gateway.Confirmation), args.Error(1)
}
