package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/segyhp/civic-billing/internal/domain"
	"github.com/segyhp/civic-billing/internal/gateway"
	"github.com/segyhp/civic-billing/internal/rate"
	"github.com/segyhp/civic-billing/internal/repository"
	customError "github.com/segyhp/civic-billing/pkg/errors"
	"github.com/segyhp/civic-billing/pkg/utils"
)

const defaultSectionWorkers = 8

type BillingService struct {
	citizenRepo    repository.CitizenRepository
	billRepo       repository.BillRepository
	paymentRepo    repository.PaymentRepository
	sequences      repository.SequenceRepository
	gateway        gateway.PaymentGateway
	engine         *rate.Engine
	logger         *zap.Logger
	sectionWorkers int
	now            func() time.Time
}

type Option func(*BillingService)

// WithClock replaces time.Now, for overdue evaluation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *BillingService) {
		s.now = now
	}
}

// WithSectionWorkers bounds how many bills a section run creates at once.
func WithSectionWorkers(n int) Option {
	return func(s *BillingService) {
		if n > 0 {
			s.sectionWorkers = n
		}
	}
}

func NewBillingService(
	citizenRepo repository.CitizenRepository,
	billRepo repository.BillRepository,
	paymentRepo repository.PaymentRepository,
	sequences repository.SequenceRepository,
	gw gateway.PaymentGateway,
	engine *rate.Engine,
	logger *zap.Logger,
	opts ...Option,
) *BillingService {
	s := &BillingService{
		citizenRepo:    citizenRepo,
		billRepo:       billRepo,
		paymentRepo:    paymentRepo,
		sequences:      sequences,
		gateway:        gw,
		engine:         engine,
		logger:         logger,
		sectionWorkers: defaultSectionWorkers,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	return s
}

// billTemplate is everything about a new bill that does not depend on the
// citizen. It is validated once and reused across a section run.
type billTemplate struct {
	serviceType    domain.ServiceType
	billingPeriod  string
	consumerNumber string
	meterReading   *decimal.Decimal
	dueDate        time.Time
	quote          rate.Quote
}

func (s *BillingService) newTemplate(
	serviceType domain.ServiceType,
	dueDate string,
	units *decimal.Decimal,
	override domain.RateOverride,
) (*billTemplate, error) {
	if err := serviceType.Validate(); err != nil {
		return nil, err
	}

	if dueDate == "" {
		return nil, customError.WrapValidation("due date is required")
	}

	due, err := utils.ParseDueDate(dueDate)
	if err != nil {
		return nil, customError.WrapValidation("due date %q must be YYYY-MM-DD", dueDate)
	}

	quote, err := s.engine.Quote(serviceType, units, override)
	if err != nil {
		return nil, err
	}

	return &billTemplate{
		serviceType: serviceType,
		dueDate:     due,
		quote:       quote,
	}, nil
}

// CreateBill prices and persists one pending bill for a citizen.
// Due dates in the past are accepted so admins can backdate imports.
func (s *BillingService) CreateBill(ctx context.Context, request *domain.CreateBillRequest) (*domain.Bill, error) {
	tmpl, err := s.newTemplate(request.ServiceType, request.DueDate, request.UnitsConsumed, request.RateOverride)
	if err != nil {
		return nil, err
	}

	if request.MeterReading != nil && request.MeterReading.IsNegative() {
		return nil, customError.WrapValidation("meter reading %s is negative", request.MeterReading)
	}

	tmpl.billingPeriod = request.BillingPeriod
	tmpl.consumerNumber = request.ConsumerNumber
	tmpl.meterReading = request.MeterReading

	return s.issueBill(ctx, request.CitizenID, tmpl)
}

func (s *BillingService) issueBill(ctx context.Context, citizenID string, tmpl *billTemplate) (*domain.Bill, error) {
	if citizenID == "" {
		return nil, customError.WrapValidation("citizen id is required")
	}

	if _, err := s.citizenRepo.GetByID(ctx, citizenID); err != nil {
		if errors.Is(err, customError.ErrNotFound) {
			return nil, customError.WrapCitizenNotFound(citizenID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	seq, err := s.sequences.Next(ctx, repository.SequenceBillNumber)
	if err != nil {
		return nil, customError.WrapCacheError(err)
	}

	bill := &domain.Bill{
		ID:             uuid.New(),
		BillNumber:     utils.FormatSequence("BILL", seq, 7),
		CitizenID:      citizenID,
		ServiceType:    tmpl.serviceType,
		BillingPeriod:  tmpl.billingPeriod,
		ConsumerNumber: tmpl.consumerNumber,
		MeterReading:   tmpl.meterReading,
		UnitsConsumed:  tmpl.quote.UnitsConsumed,
		Amount:         tmpl.quote.Amount,
		DueDate:        tmpl.dueDate,
		Status:         domain.BillStatusPending,
		CreatedAt:      s.now(),
	}

	if err = s.billRepo.Create(ctx, bill); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.Debug("bill created",
		zap.String("bill_number", bill.BillNumber),
		zap.String("citizen_id", citizenID),
		zap.String("service_type", bill.ServiceType.String()),
		zap.String("amount", bill.Amount.StringFixed(2)),
	)

	return bill, nil
}

// GenerateSectionBills bills every targeted citizen with the same service,
// period, due date and rates. A citizen that cannot be billed is reported
// in Failures and does not stop the others. Repeating a call bills again.
func (s *BillingService) GenerateSectionBills(ctx context.Context, request *domain.SectionGenerationRequest) (*domain.BatchResult, error) {
	tmpl, err := s.newTemplate(request.ServiceType, request.DueDate, nil, request.RateOverride())
	if err != nil {
		return nil, err
	}
	tmpl.billingPeriod = request.BillingPeriod

	citizenIDs, err := s.resolveTargets(ctx, request)
	if err != nil {
		return nil, err
	}

	bills := make([]*domain.Bill, len(citizenIDs))
	errs := make([]error, len(citizenIDs))

	var g errgroup.Group
	g.SetLimit(s.sectionWorkers)

	for i, citizenID := range citizenIDs {
		i, citizenID := i, citizenID
		g.Go(func() error {
			bills[i], errs[i] = s.issueBill(ctx, citizenID, tmpl)
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.BatchResult{
		Bills:    make([]*domain.Bill, 0, len(citizenIDs)),
		Failures: make([]domain.BillFailure, 0),
	}

	for i, citizenID := range citizenIDs {
		if errs[i] != nil {
			result.Failures = append(result.Failures, domain.NewBillFailure(citizenID, customError.CodeOf(errs[i]), errs[i]))
			continue
		}
		result.Bills = append(result.Bills, bills[i])
	}
	result.TotalBills = len(result.Bills)

	s.logger.Info("section bills generated",
		zap.String("service_type", request.ServiceType.String()),
		zap.String("billing_period", request.BillingPeriod),
		zap.Int("requested", len(citizenIDs)),
		zap.Int("created", result.TotalBills),
		zap.Int("failed", len(result.Failures)),
	)
	for _, failure := range result.Failures {
		s.logger.Warn("section bill not issued",
			zap.String("citizen_id", failure.CitizenID),
			zap.String("code", failure.Code),
			zap.Error(failure.Err()),
		)
	}

	return result, nil
}

func (s *BillingService) resolveTargets(ctx context.Context, request *domain.SectionGenerationRequest) ([]string, error) {
	switch request.Target {
	case domain.TargetAllCitizens:
		citizens, err := s.citizenRepo.List(ctx)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}

		ids := make([]string, 0, len(citizens))
		for _, c := range citizens {
			ids = append(ids, c.ID)
		}
		return ids, nil

	case domain.TargetCitizenList:
		if len(request.CitizenIDs) == 0 {
			return nil, customError.WrapValidation("citizen_ids must not be empty")
		}

		seen := make(map[string]struct{}, len(request.CitizenIDs))
		ids := make([]string, 0, len(request.CitizenIDs))
		for _, id := range request.CitizenIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		return ids, nil

	default:
		return nil, customError.WrapValidation("unknown target %q", string(request.Target))
	}
}

// PayBill settles a pending or overdue bill through the payment gateway.
// Exactly one of several concurrent payers for the same bill succeeds; the
// rest get ErrAlreadyPaid.
func (s *BillingService) PayBill(ctx context.Context, billID string, method domain.PaymentMethod) (*domain.Receipt, error) {
	id, err := uuid.Parse(billID)
	if err != nil {
		return nil, customError.WrapBillNotFound(billID)
	}

	if err = method.Validate(); err != nil {
		return nil, err
	}

	bill, err := s.getBill(ctx, id)
	if err != nil {
		return nil, err
	}

	if bill.Status == domain.BillStatusPaid {
		return nil, customError.WrapAlreadyPaid(billID)
	}

	confirmation, err := s.gateway.Collect(ctx, gateway.Charge{
		BillNumber:    bill.BillNumber,
		CitizenID:     bill.CitizenID,
		Amount:        bill.Amount,
		PaymentMethod: method,
	})
	if err != nil {
		return nil, customError.WrapGatewayError(err)
	}

	payment := &domain.Payment{
		ID:            uuid.New(),
		CitizenID:     bill.CitizenID,
		BillID:        bill.ID,
		Amount:        bill.Amount,
		PaymentMethod: method,
		TransactionID: confirmation.TransactionID,
		ReceiptNumber: confirmation.ReceiptNumber,
		Status:        domain.PaymentStatusSuccess,
		CreatedAt:     s.now(),
	}

	err = s.billRepo.MarkPaid(ctx, bill.ID, payment)
	switch {
	case errors.Is(err, customError.ErrAlreadyPaid):
		return nil, customError.WrapAlreadyPaid(billID)
	case errors.Is(err, customError.ErrNotFound):
		return nil, customError.WrapBillNotFound(billID)
	case err != nil:
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.Receipt{
		PaymentID:     payment.ID,
		TransactionID: payment.TransactionID,
		ReceiptNumber: payment.ReceiptNumber,
		Amount:        payment.Amount,
		BillNumber:    bill.BillNumber,
		ServiceType:   bill.ServiceType,
		PaymentMethod: method,
		PaidAt:        payment.CreatedAt,
	}, nil
}

func (s *BillingService) getBill(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if errors.Is(err, customError.ErrNotFound) {
		return nil, customError.WrapBillNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return bill, nil
}

// GetBill returns a bill with its read-time status.
func (s *BillingService) GetBill(ctx context.Context, billID string) (*domain.Bill, error) {
	id, err := uuid.Parse(billID)
	if err != nil {
		return nil, customError.WrapBillNotFound(billID)
	}

	bill, err := s.getBill(ctx, id)
	if err != nil {
		return nil, err
	}

	return domain.WithEffectiveStatus(bill, s.now()), nil
}

// ListBills returns bills with overdue derived at read time. Filtering on
// overdue or pending queries stored pending bills and splits them by date.
func (s *BillingService) ListBills(ctx context.Context, filter domain.BillFilter) ([]*domain.Bill, error) {
	if filter.ServiceType != "" {
		if err := filter.ServiceType.Validate(); err != nil {
			return nil, err
		}
	}

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, customError.WrapValidation("unknown bill status %q", string(filter.Status))
	}

	storeFilter := filter
	if filter.Status == domain.BillStatusOverdue {
		storeFilter.Status = domain.BillStatusPending
	}

	bills, err := s.billRepo.List(ctx, storeFilter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	views := make([]*domain.Bill, 0, len(bills))
	for _, bill := range bills {
		view := domain.WithEffectiveStatus(bill, now)
		if filter.Status != "" && view.Status != filter.Status {
			continue
		}
		views = append(views, view)
	}

	return views, nil
}

// ListPayments returns a citizen's payment history, newest first.
func (s *BillingService) ListPayments(ctx context.Context, citizenID string) ([]*domain.PaymentHistoryEntry, error) {
	if citizenID == "" {
		return nil, customError.WrapValidation("citizen id is required")
	}

	entries, err := s.paymentRepo.GetByCitizenID(ctx, citizenID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return entries, nil
}

// GetReceipt rebuilds the receipt of an earlier payment.
func (s *BillingService) GetReceipt(ctx context.Context, paymentID string) (*domain.Receipt, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, customError.WrapPaymentNotFound(paymentID)
	}

	entry, err := s.paymentRepo.GetByID(ctx, id)
	if errors.Is(err, customError.ErrNotFound) {
		return nil, customError.WrapPaymentNotFound(paymentID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return domain.ReceiptFromEntry(entry), nil
}

func (s *BillingService) Summary(ctx context.Context) (*domain.BillSummary, error) {
	summary, err := s.billRepo.Summary(ctx, s.now())
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return summary, nil
}

// Rates returns the default rate table.
func (s *BillingService) Rates() domain.RateTable {
	return s.engine.Table()
}
