package service

import (
	"time"

	"github.com/segyhp/invoice-followups/internal/domain"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/segyhp/invoice-followups/pkg/utils"
)

type EditMode string

const (
	EditModeFull    EditMode = "FULL"
	EditModeLimited EditMode = "LIMITED"
)

// Request field names, as the caller sent them
const (
	fieldInvoiceNumber = "invoice_number"
	fieldClientName    = "client_name"
	fieldClientEmail   = "client_email"
	fieldAmount        = "amount"
	fieldCurrency      = "currency"
	fieldDueDate       = "due_date"
	fieldStatus        = "status"
	fieldNotes         = "notes"
	fieldScheduleID    = "schedule_id"
)

// limitedEditFields may still change once a reminder has been sent
var limitedEditFields = map[string]bool{
	fieldNotes:   true,
	fieldStatus:  true,
	fieldDueDate: true,
}

// EditDecision is the outcome of checking an update against the invoice's reminder history
type EditDecision struct {
	Mode           EditMode
	SentCount      int
	ChangedFields  []string
	DueDateChanged bool
	Restart        bool
	Pause          bool
	Regenerate     bool
}

// EvaluateEdit decides whether req may be applied to invoice given its SENT follow-up count.
// Checks run in order: paid lock, schedule lock and restricted fields, restart decision.
func EvaluateEdit(invoice *domain.Invoice, req *domain.UpdateInvoiceRequest, sentCount int, now time.Time) (*EditDecision, error) {
	if invoice.Status == domain.InvoiceStatusPaid {
		return nil, customError.WrapInvoicePaidLocked(invoice.ID.String())
	}

	decision := &EditDecision{
		Mode:          EditModeFull,
		SentCount:     sentCount,
		ChangedFields: changedFields(invoice, req),
	}

	if sentCount > 0 {
		decision.Mode = EditModeLimited

		var rejected []string
		for _, field := range decision.ChangedFields {
			if field == fieldScheduleID {
				return nil, customError.WrapScheduleLocked(sentCount)
			}
			if !limitedEditFields[field] {
				rejected = append(rejected, field)
			}
		}
		if len(rejected) > 0 {
			return nil, customError.WrapRestrictedFields(sentCount, rejected)
		}
	}

	for _, field := range decision.ChangedFields {
		switch field {
		case fieldDueDate:
			decision.DueDateChanged = true
		case fieldStatus, fieldScheduleID:
			decision.Regenerate = true
		}
	}

	if decision.DueDateChanged {
		if req.RestartReminders == nil {
			return nil, customError.WrapRestartDecisionRequired()
		}

		if *req.RestartReminders {
			decision.Restart = true
			decision.Regenerate = true
		} else {
			overdue := invoice.Status == domain.InvoiceStatusOverdue || utils.IsDateOverdue(invoice.DueDate, now)
			decision.Pause = overdue || invoice.RemindersCompleted
		}
	}

	return decision, nil
}

// Apply copies the permitted changes onto invoice along with the reminder side effects
func (d *EditDecision) Apply(invoice *domain.Invoice, req *domain.UpdateInvoiceRequest, now time.Time) {
	if req.InvoiceNumber != nil {
		invoice.InvoiceNumber = *req.InvoiceNumber
	}
	if req.ClientName != nil {
		invoice.ClientName = *req.ClientName
	}
	if req.ClientEmail != nil {
		invoice.ClientEmail = *req.ClientEmail
	}
	if req.Amount != nil {
		invoice.Amount = *req.Amount
	}
	if req.Currency != nil {
		invoice.Currency = *req.Currency
	}
	if req.Status != nil {
		invoice.Status = *req.Status
	}
	if req.Notes != nil {
		invoice.Notes = req.Notes
	}
	if req.ScheduleID != nil {
		scheduleID := *req.ScheduleID
		invoice.ScheduleID = &scheduleID
	}
	if req.DueDate != nil {
		invoice.DueDate = utils.CalendarDate(*req.DueDate)
	}

	switch {
	case d.Restart:
		base := invoice.DueDate
		resetAt := now
		invoice.RemindersEnabled = true
		invoice.RemindersBaseDueDate = &base
		invoice.RemindersResetAt = &resetAt
		invoice.RemindersCompleted = false
		invoice.RemindersPausedReason = nil
		invoice.TotalScheduledReminders = nil
	case d.Pause:
		reason := domain.PausedReasonDateChangedNoRestart
		invoice.RemindersEnabled = false
		invoice.RemindersPausedReason = &reason
	}
}

// changedFields lists the fields present in req whose value differs from the invoice
func changedFields(invoice *domain.Invoice, req *domain.UpdateInvoiceRequest) []string {
	var fields []string

	if req.InvoiceNumber != nil && *req.InvoiceNumber != invoice.InvoiceNumber {
		fields = append(fields, fieldInvoiceNumber)
	}
	if req.ClientName != nil && *req.ClientName != invoice.ClientName {
		fields = append(fields, fieldClientName)
	}
	if req.ClientEmail != nil && *req.ClientEmail != invoice.ClientEmail {
		fields = append(fields, fieldClientEmail)
	}
	if req.Amount != nil && !req.Amount.Equal(invoice.Amount) {
		fields = append(fields, fieldAmount)
	}
	if req.Currency != nil && *req.Currency != invoice.Currency {
		fields = append(fields, fieldCurrency)
	}
	if req.DueDate != nil && !utils.SameDay(utils.CalendarDate(*req.DueDate), invoice.DueDate) {
		fields = append(fields, fieldDueDate)
	}
	if req.Status != nil && *req.Status != invoice.Status {
		fields = append(fields, fieldStatus)
	}
	if req.Notes != nil && (invoice.Notes == nil || *req.Notes != *invoice.Notes) {
		fields = append(fields, fieldNotes)
	}
	if req.ScheduleID != nil && (invoice.ScheduleID == nil || *req.ScheduleID != *invoice.ScheduleID) {
		fields = append(fields, fieldScheduleID)
	}

	return fields
}

// Changed reports whether field is among the changed fields
func (d *EditDecision) Changed(field string) bool {
	for _, f := range d.ChangedFields {
		if f == field {
			return true
		}
	}
	return false
}
