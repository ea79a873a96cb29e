package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule is a named, ordered list of reminder steps owned by an account.
// Exactly one schedule per account carries IsDefault.
type Schedule struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	AccountID uuid.UUID       `json:"account_id" db:"account_id"`
	Name      string          `json:"name" db:"name"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	IsDefault bool            `json:"is_default" db:"is_default"`
	Steps     []*ScheduleStep `json:"steps" db:"-"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// ScheduleStep fires DayOffset days after (negative: before) the due date.
// Steps run in Order ascending; offsets need not be unique or monotonic.
type ScheduleStep struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ScheduleID uuid.UUID `json:"schedule_id" db:"schedule_id"`
	TemplateID uuid.UUID `json:"template_id" db:"template_id"`
	DayOffset  int       `json:"day_offset" db:"day_offset"`
	Order      int       `json:"order" db:"step_order"`
}

// Template holds the subject/body rendered into follow-ups at generation time
type Template struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
	Name      string    `json:"name" db:"name"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type ScheduleStepRequest struct {
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
	DayOffset  int       `json:"day_offset" validate:"gte=-365,lte=365"`
	Order      int       `json:"order" validate:"gte=0"`
}

type CreateScheduleRequest struct {
	Name      string                 `json:"name" validate:"required,max=255"`
	IsActive  *bool                  `json:"is_active"`
	IsDefault bool                   `json:"is_default"`
	Steps     []*ScheduleStepRequest `json:"steps" validate:"required,min=1,dive"`
}

type UpdateScheduleStepsRequest struct {
	Steps []*ScheduleStepRequest `json:"steps" validate:"required,min=1,dive"`
}

type SetScheduleActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type CreateTemplateRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required"`
}

// TemplateResponse lists the placeholders found in a stored template.
// Unknown ones are rendered verbatim.
type TemplateResponse struct {
	Template            *Template `json:"template"`
	Placeholders        []string  `json:"placeholders"`
	UnknownPlaceholders []string  `json:"unknown_placeholders"`
}

type ScheduleChangeResponse struct {
	Schedule              *Schedule `json:"schedule"`
	RegeneratedInvoiceIDs []string  `json:"regenerated_invoice_ids"`
}
