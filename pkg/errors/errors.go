package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrValidation              = errors.New("validation failed")
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrScheduleNotFound        = errors.New("schedule not found")
	ErrTemplateNotFound        = errors.New("template not found")
	ErrInvoicePaidLocked       = errors.New("paid invoices cannot be edited")
	ErrRestrictedFields        = errors.New("fields are locked after reminders were sent")
	ErrScheduleLocked          = errors.New("schedule is locked after reminders were sent")
	ErrRestartDecisionRequired = errors.New("restart_reminders is required when the due date changes")
	ErrScheduleInUse           = errors.New("schedule is referenced by invoices")
	ErrScheduleDefaultLocked   = errors.New("default schedule cannot be deleted")
	ErrSweepInProgress         = errors.New("follow-up sweep already running")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
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

// WithDetail attaches structured context for the caller
func (e *BusinessError) WithDetail(key string, value interface{}) *BusinessError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Error codes
const (
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeValidation              = "VALIDATION_FAILED"
	ErrCodeInvoiceNotFound         = "INVOICE_NOT_FOUND"
	ErrCodeScheduleNotFound        = "SCHEDULE_NOT_FOUND"
	ErrCodeTemplateNotFound        = "TEMPLATE_NOT_FOUND"
	ErrCodeInvoicePaidLocked       = "INVOICE_PAID_LOCKED"
	ErrCodeRestrictedFields        = "RESTRICTED_FIELDS"
	ErrCodeScheduleLocked          = "SCHEDULE_LOCKED"
	ErrCodeRestartDecisionRequired = "RESTART_DECISION_REQUIRED"
	ErrCodeScheduleInUse           = "SCHEDULE_IN_USE"
	ErrCodeScheduleDefaultLocked   = "SCHEDULE_DEFAULT_LOCKED"
	ErrCodeSweepInProgress         = "SWEEP_IN_PROGRESS"
	ErrCodeDatabaseError           = "DATABASE_ERROR"
	ErrCodeCacheError              = "CACHE_ERROR"
)

// Code extracts the business code from err, or "" when err is not a BusinessError
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Wrap common errors with business context
func WrapUnauthorized(message string) *BusinessError {
	return NewBusinessError(ErrCodeUnauthorized, message, ErrUnauthorized)
}

func WrapForbidden(message string) *BusinessError {
	return NewBusinessError(ErrCodeForbidden, message, ErrForbidden)
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

func WrapInvoiceNotFound(invoiceID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvoiceNotFound,
		fmt.Sprintf("Invoice with ID %s not found", invoiceID),
		ErrInvoiceNotFound,
	)
}

func WrapScheduleNotFound(scheduleID string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleNotFound,
		fmt.Sprintf("Schedule with ID %s not found", scheduleID),
		ErrScheduleNotFound,
	)
}

func WrapTemplateNotFound(templateID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTemplateNotFound,
		fmt.Sprintf("Template with ID %s not found", templateID),
		ErrTemplateNotFound,
	)
}

func WrapInvoicePaidLocked(invoiceID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvoicePaidLocked,
		fmt.Sprintf("Invoice %s is paid and can no longer be edited", invoiceID),
		ErrInvoicePaidLocked,
	)
}

func WrapRestrictedFields(sentCount int, fields []string) *BusinessError {
	return NewBusinessError(
		ErrCodeRestrictedFields,
		fmt.Sprintf("%d reminder(s) already sent; only notes, status and due date can be changed (rejected: %s)",
			sentCount, strings.Join(fields, ", ")),
		ErrRestrictedFields,
	).WithDetail("sentCount", sentCount).WithDetail("fields", fields)
}

func WrapScheduleLocked(sentCount int) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleLocked,
		fmt.Sprintf("%d reminder(s) already sent; the follow-up schedule can no longer be changed", sentCount),
		ErrScheduleLocked,
	).WithDetail("sentCount", sentCount)
}

func WrapRestartDecisionRequired() *BusinessError {
	return NewBusinessError(
		ErrCodeRestartDecisionRequired,
		"Changing the due date requires restart_reminders to be true or false",
		ErrRestartDecisionRequired,
	)
}

func WrapScheduleInUse(scheduleID string, invoiceCount int) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleInUse,
		fmt.Sprintf("Schedule %s is used by %d invoice(s)", scheduleID, invoiceCount),
		ErrScheduleInUse,
	).WithDetail("invoiceCount", invoiceCount)
}

func WrapScheduleDefaultLocked(scheduleID string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleDefaultLocked,
		fmt.Sprintf("Schedule %s is the default schedule; choose another default first", scheduleID),
		ErrScheduleDefaultLocked,
	)
}

func WrapSweepInProgress() *BusinessError {
	return NewBusinessError(
		ErrCodeSweepInProgress,
		"Another follow-up sweep holds the lock",
		ErrSweepInProgress,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
