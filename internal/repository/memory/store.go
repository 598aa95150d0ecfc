// Package memory is an in-process implementation of the repository
// interfaces, used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/civic-billing/internal/domain"
	"github.com/segyhp/civic-billing/internal/repository"
	customError "github.com/segyhp/civic-billing/pkg/errors"
)

var (
	_ repository.CitizenRepository      = (*Store)(nil)
	_ repository.BillRepository         = billView{}
	_ repository.PaymentRepository      = paymentView{}
	_ repository.NotificationRepository = (*Store)(nil)
	_ repository.SequenceRepository     = (*Store)(nil)
)

// Store keeps every record behind one mutex. Records are copied on the way
// in and out so callers never share memory with the store.
type Store struct {
	mu            sync.RWMutex
	citizens      map[string]*domain.Citizen
	citizenOrder  []string
	bills         map[uuid.UUID]*domain.Bill
	payments      map[uuid.UUID]*domain.Payment
	notifications []*domain.Notification
	sequences     map[string]int64
}

func NewStore() *Store {
	return &Store{
		citizens:  make(map[string]*domain.Citizen),
		bills:     make(map[uuid.UUID]*domain.Bill),
		payments:  make(map[uuid.UUID]*domain.Payment),
		sequences: make(map[string]int64),
	}
}

// AddCitizen registers a citizen; used to seed the store.
func (s *Store) AddCitizen(citizen *domain.Citizen) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *citizen
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if _, ok := s.citizens[c.ID]; !ok {
		s.citizenOrder = append(s.citizenOrder, c.ID)
	}
	s.citizens[c.ID] = &c
}

func (s *Store) GetByID(_ context.Context, citizenID string) (*domain.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.citizens[citizenID]
	if !ok {
		return nil, customError.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *Store) List(_ context.Context) ([]*domain.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	citizens := make([]*domain.Citizen, 0, len(s.citizenOrder))
	for _, id := range s.citizenOrder {
		copied := *s.citizens[id]
		citizens = append(citizens, &copied)
	}
	return citizens, nil
}

// Bills exposes the BillRepository view of the store. Citizen and bill
// lookups share method names, so the store is split into views.
func (s *Store) Bills() repository.BillRepository {
	return billView{s}
}

// Payments exposes the PaymentRepository view of the store.
func (s *Store) Payments() repository.PaymentRepository {
	return paymentView{s}
}

// Notifications returns a snapshot of the stored notifications.
func (s *Store) Notifications() []*domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		copied := *n
		out = append(out, &copied)
	}
	return out
}

func (s *Store) Create(_ context.Context, notification *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *notification
	s.notifications = append(s.notifications, &copied)
	return nil
}

func (s *Store) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequences[name]++
	return s.sequences[name], nil
}

type billView struct {
	s *Store
}

func (v billView) Create(_ context.Context, bill *domain.Bill) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if _, ok := v.s.bills[bill.ID]; ok {
		return customError.WrapValidation("bill %s already exists", bill.ID)
	}
	for _, existing := range v.s.bills {
		if existing.BillNumber == bill.BillNumber {
			return customError.WrapValidation("bill number %s already exists", bill.BillNumber)
		}
	}

	v.s.bills[bill.ID] = cloneBill(bill)
	return nil
}

func (v billView) GetByID(_ context.Context, billID uuid.UUID) (*domain.Bill, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	bill, ok := v.s.bills[billID]
	if !ok {
		return nil, customError.ErrNotFound
	}
	return cloneBill(bill), nil
}

func (v billView) List(_ context.Context, filter domain.BillFilter) ([]*domain.Bill, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	bills := make([]*domain.Bill, 0)
	for _, bill := range v.s.bills {
		if filter.CitizenID != "" && bill.CitizenID != filter.CitizenID {
			continue
		}
		if filter.ServiceType != "" && bill.ServiceType != filter.ServiceType {
			continue
		}
		if filter.Status != "" && bill.Status != filter.Status {
			continue
		}
		bills = append(bills, cloneBill(bill))
	}

	sort.Slice(bills, func(i, j int) bool {
		if !bills[i].DueDate.Equal(bills[j].DueDate) {
			return bills[i].DueDate.Before(bills[j].DueDate)
		}
		return bills[i].BillNumber < bills[j].BillNumber
	})

	return bills, nil
}

func (v billView) MarkPaid(_ context.Context, billID uuid.UUID, payment *domain.Payment) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	bill, ok := v.s.bills[billID]
	if !ok {
		return customError.ErrNotFound
	}
	if bill.Status != domain.BillStatusPending {
		return customError.ErrAlreadyPaid
	}

	paidAt := payment.CreatedAt
	txID := payment.TransactionID
	method := payment.PaymentMethod.String()

	bill.Status = domain.BillStatusPaid
	bill.PaidAt = &paidAt
	bill.TransactionID = &txID
	bill.PaymentMethod = &method

	copied := *payment
	v.s.payments[payment.ID] = &copied

	return nil
}

func (v billView) Summary(_ context.Context, asOf time.Time) (*domain.BillSummary, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	summary := &domain.BillSummary{Revenue: decimal.Zero}
	for _, bill := range v.s.bills {
		summary.TotalBills++
		switch domain.EffectiveStatus(bill, asOf) {
		case domain.BillStatusPending:
			summary.Pending++
		case domain.BillStatusOverdue:
			summary.Overdue++
		case domain.BillStatusPaid:
			summary.Paid++
		}
	}
	for _, p := range v.s.payments {
		if p.Status == domain.PaymentStatusSuccess {
			summary.Revenue = summary.Revenue.Add(p.Amount)
		}
	}

	return summary, nil
}

type paymentView struct {
	s *Store
}

func (v paymentView) GetByID(_ context.Context, paymentID uuid.UUID) (*domain.PaymentHistoryEntry, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	p, ok := v.s.payments[paymentID]
	if !ok {
		return nil, customError.ErrNotFound
	}
	return v.entry(p), nil
}

func (v paymentView) GetByCitizenID(_ context.Context, citizenID string) ([]*domain.PaymentHistoryEntry, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	entries := make([]*domain.PaymentHistoryEntry, 0)
	for _, p := range v.s.payments {
		if p.CitizenID == citizenID {
			entries = append(entries, v.entry(p))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}

// entry must be called with the read lock held.
func (v paymentView) entry(p *domain.Payment) *domain.PaymentHistoryEntry {
	e := &domain.PaymentHistoryEntry{Payment: *p}
	if bill, ok := v.s.bills[p.BillID]; ok {
		e.ServiceType = bill.ServiceType
		e.BillNumber = bill.BillNumber
		e.BillingPeriod = bill.BillingPeriod
	}
	return e
}

func cloneBill(bill *domain.Bill) *domain.Bill {
	copied := *bill
	if bill.UnitsConsumed != nil {
		units := *bill.UnitsConsumed
		copied.UnitsConsumed = &units
	}
	if bill.MeterReading != nil {
		reading := *bill.MeterReading
		copied.MeterReading = &reading
	}
	if bill.PaidAt != nil {
		paidAt := *bill.PaidAt
		copied.PaidAt = &paidAt
	}
	if bill.TransactionID != nil {
		txID := *bill.TransactionID
		copied.TransactionID = &txID
	}
	if bill.PaymentMethod != nil {
		method := *bill.PaymentMethod
		copied.PaymentMethod = &method
	}
	return &copied
}
