package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/civic-billing/internal/domain"
	"github.com/segyhp/civic-billing/internal/repository"
	customError "github.com/segyhp/civic-billing/pkg/errors"
	"github.com/segyhp/civic-billing/pkg/utils"
)

// ReminderService nudges citizens about pending bills that fall due soon.
type ReminderService struct {
	billRepo         repository.BillRepository
	notificationRepo repository.NotificationRepository
	logger           *zap.Logger
	now              func() time.Time
}

func NewReminderService(
	billRepo repository.BillRepository,
	notificationRepo repository.NotificationRepository,
	logger *zap.Logger,
	now func() time.Time,
) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}

	return &ReminderService{
		billRepo:         billRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
		now:              now,
	}
}

// SendDueReminders writes one bill_reminder notification per pending bill
// due between today and windowDays from now, inclusive. Overdue bills are
// skipped. It returns how many reminders were written; a failed write does
// not stop the rest.
func (s *ReminderService) SendDueReminders(ctx context.Context, windowDays int) (int, error) {
	if windowDays < 0 {
		return 0, customError.WrapValidation("reminder window %d is negative", windowDays)
	}

	bills, err := s.billRepo.List(ctx, domain.BillFilter{Status: domain.BillStatusPending})
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	now := s.now()
	sent := 0
	var errs []error

	for _, bill := range bills {
		if err = ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		days := utils.DaysUntil(bill.DueDate, now)
		if days < 0 || days > windowDays {
			continue
		}

		notification := &domain.Notification{
			ID:        uuid.New(),
			CitizenID: bill.CitizenID,
			Title:     "Bill Payment Reminder",
			Message:   reminderMessage(bill, days),
			Type:      domain.NotificationTypeBillReminder,
			CreatedAt: now,
		}

		if err = s.notificationRepo.Create(ctx, notification); err != nil {
			s.logger.Warn("failed to write bill reminder",
				zap.String("bill_number", bill.BillNumber),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("bill %s: %w", bill.BillNumber, err))
			continue
		}
		sent++
	}

	s.logger.Info("bill reminders sent",
		zap.Int("pending", len(bills)),
		zap.Int("sent", sent),
		zap.Int("failed", len(errs)),
	)

	if len(errs) > 0 {
		return sent, customError.WrapDatabaseError(errors.Join(errs...))
	}

	return sent, nil
}

func reminderMessage(bill *domain.Bill, days int) string {
	when := fmt.Sprintf("in %d days", days)
	switch days {
	case 0:
		when = "today"
	case 1:
		when = "tomorrow"
	}

	return fmt.Sprintf("Your %s bill %s of Rs. %s is due %s (%s).",
		bill.ServiceType, bill.BillNumber, bill.Amount.StringFixed(2), when, bill.DueDate.Format(utils.DateLayout))
}
