package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// RoundCurrency rounds to minor-unit precision, half away from zero.
func RoundCurrency(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ParseDueDate parses a YYYY-MM-DD date as midnight UTC
func ParseDueDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// IsDateOverdue checks if dueDate lies on a calendar day before the UTC day
// of now. A bill due today is not overdue until tomorrow. The postgres
// summary compares against the same UTC day.
func IsDateOverdue(dueDate time.Time, now time.Time) bool {
	return utcDay(now).After(calendarDay(dueDate))
}

// DaysUntil returns whole calendar days from the UTC day of now to dueDate
// (negative when past).
func DaysUntil(dueDate time.Time, now time.Time) int {
	return int(calendarDay(dueDate).Sub(utcDay(now)).Hours() / 24)
}

// calendarDay keeps the date as written; due dates carry no time of day.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func utcDay(t time.Time) time.Time {
	return calendarDay(t.UTC())
}

// FormatSequence renders a human readable identifier like BILL0000042.
func FormatSequence(prefix string, n int64, width int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
