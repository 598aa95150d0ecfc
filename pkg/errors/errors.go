package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyPaid       = errors.New("bill already paid")
	ErrInfrastructure    = errors.New("infrastructure unavailable")
	ErrRateNotConfigured = fmt.Errorf("%w: rate not configured", ErrValidation)
	ErrNegativeUnits     = fmt.Errorf("%w: units consumed must not be negative", ErrValidation)
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeRateNotConfigured = "RATE_NOT_CONFIGURED"
	ErrCodeCitizenNotFound   = "CITIZEN_NOT_FOUND"
	ErrCodeBillNotFound      = "BILL_NOT_FOUND"
	ErrCodePaymentNotFound   = "PAYMENT_NOT_FOUND"
	ErrCodeAlreadyPaid       = "ALREADY_PAID"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
	ErrCodeGatewayError      = "GATEWAY_ERROR"
)

// CodeOf returns the code of the outermost BusinessError in the chain, or "".
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapValidation(format string, args ...any) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		fmt.Sprintf(format, args...),
		ErrValidation,
	)
}

func WrapRateNotConfigured(serviceType string) *BusinessError {
	return NewBusinessError(
		ErrCodeRateNotConfigured,
		fmt.Sprintf("no rate schedule configured for service %s", serviceType),
		ErrRateNotConfigured,
	)
}

func WrapNegativeUnits(units string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		fmt.Sprintf("units consumed %s is negative", units),
		ErrNegativeUnits,
	)
}

func WrapCitizenNotFound(citizenID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCitizenNotFound,
		fmt.Sprintf("Citizen with ID %s not found", citizenID),
		ErrNotFound,
	)
}

func WrapBillNotFound(billID string) *BusinessError {
	return NewBusinessError(
		ErrCodeBillNotFound,
		fmt.Sprintf("Bill with ID %s not found", billID),
		ErrNotFound,
	)
}

func WrapPaymentNotFound(paymentID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %s not found", paymentID),
		ErrNotFound,
	)
}

func WrapAlreadyPaid(billID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyPaid,
		fmt.Sprintf("Bill with ID %s is already paid", billID),
		ErrAlreadyPaid,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		errors.Join(ErrInfrastructure, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		errors.Join(ErrInfrastructure, err),
	)
}

func WrapGatewayError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeGatewayError,
		"payment gateway failed",
		errors.Join(ErrInfrastructure, err),
	)
}
