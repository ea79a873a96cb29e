package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/internal/repository"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/segyhp/invoice-followups/pkg/utils"

	"github.com/sirupsen/logrus"
)

// FollowUpGenerator turns a schedule into dated, pre-rendered follow-ups for an invoice
type FollowUpGenerator struct {
	invoiceRepo  repository.InvoiceRepository
	scheduleRepo repository.ScheduleRepository
	templateRepo repository.TemplateRepository
	followUpRepo repository.FollowUpRepository
	renderer     *TemplateRenderer
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewFollowUpGenerator(
	invoiceRepo repository.InvoiceRepository,
	scheduleRepo repository.ScheduleRepository,
	templateRepo repository.TemplateRepository,
	followUpRepo repository.FollowUpRepository,
	logger logrus.FieldLogger,
) *FollowUpGenerator {
	return &FollowUpGenerator{
		invoiceRepo:  invoiceRepo,
		scheduleRepo: scheduleRepo,
		templateRepo: templateRepo,
		followUpRepo: followUpRepo,
		renderer:     NewTemplateRenderer(),
		logger:       logger,
		now:          time.Now,
	}
}

// Generate creates one PENDING follow-up per schedule step for a freshly created invoice.
// All rows are inserted or none are.
func (g *FollowUpGenerator) Generate(ctx context.Context, accountID, invoiceID, scheduleID uuid.UUID) ([]*domain.FollowUp, error) {
	invoice, err := g.invoiceRepo.GetByID(ctx, accountID, invoiceID)
	if err != nil {
		return nil, lookupError(err, func() *customError.BusinessError {
			return customError.WrapInvoiceNotFound(invoiceID.String())
		})
	}

	schedule, err := g.scheduleRepo.GetByID(ctx, accountID, scheduleID)
	if err != nil {
		return nil, lookupError(err, func() *customError.BusinessError {
			return customError.WrapScheduleNotFound(scheduleID.String())
		})
	}

	followUps, err := g.build(ctx, invoice, schedule, nil)
	if err != nil {
		return nil, err
	}

	if err := g.followUpRepo.CreateBatch(ctx, followUps); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	g.logger.WithFields(logrus.Fields{
		"invoice_id":  invoice.ID,
		"schedule_id": schedule.ID,
		"created":     len(followUps),
	}).Info("follow-ups generated")

	return followUps, nil
}

// Regenerate replaces the invoice's PENDING follow-ups using its current schedule and due date.
// SENT, SKIPPED and FAILED rows are left untouched.
func (g *FollowUpGenerator) Regenerate(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.RegenerateResult, error) {
	invoice, err := g.invoiceRepo.GetByID(ctx, accountID, invoiceID)
	if err != nil {
		return nil, lookupError(err, func() *customError.BusinessError {
			return customError.WrapInvoiceNotFound(invoiceID.String())
		})
	}

	var schedule *domain.Schedule
	if invoice.ScheduleID != nil && acceptsReminders(invoice) {
		schedule, err = g.scheduleRepo.GetByID(ctx, accountID, *invoice.ScheduleID)
		if err != nil {
			return nil, lookupError(err, func() *customError.BusinessError {
				return customError.WrapScheduleNotFound(invoice.ScheduleID.String())
			})
		}
	}

	return g.regenerate(ctx, invoice, schedule)
}

// RegenerateAllFollowUps regenerates every PENDING invoice on the schedule whose reminders are
// neither paused nor completed. It returns the ids regenerated before any failure.
func (g *FollowUpGenerator) RegenerateAllFollowUps(ctx context.Context, accountID, scheduleID uuid.UUID) ([]uuid.UUID, error) {
	schedule, err := g.scheduleRepo.GetByID(ctx, accountID, scheduleID)
	if err != nil {
		return nil, lookupError(err, func() *customError.BusinessError {
			return customError.WrapScheduleNotFound(scheduleID.String())
		})
	}

	invoices, err := g.invoiceRepo.ListRegenerableBySchedule(ctx, accountID, scheduleID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	regenerated := make([]uuid.UUID, 0, len(invoices))
	for _, invoice := range invoices {
		if _, err := g.regenerate(ctx, invoice, schedule); err != nil {
			return regenerated, err
		}
		regenerated = append(regenerated, invoice.ID)
	}

	g.logger.WithFields(logrus.Fields{
		"schedule_id": scheduleID,
		"invoices":    len(regenerated),
	}).Info("schedule follow-ups regenerated")

	return regenerated, nil
}

// regenerate prunes pending rows when schedule is nil
func (g *FollowUpGenerator) regenerate(ctx context.Context, invoice *domain.Invoice, schedule *domain.Schedule) (*domain.RegenerateResult, error) {
	var followUps []*domain.FollowUp
	if schedule != nil && acceptsReminders(invoice) {
		history, err := g.followUpRepo.ListByInvoice(ctx, invoice.ID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}

		followUps, err = g.build(ctx, invoice, schedule, history)
		if err != nil {
			return nil, err
		}
	}

	deleted, err := g.followUpRepo.ReplacePending(ctx, invoice.ID, followUps)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	g.logger.WithFields(logrus.Fields{
		"invoice_id": invoice.ID,
		"deleted":    deleted,
		"created":    len(followUps),
	}).Info("follow-ups regenerated")

	return &domain.RegenerateResult{
		InvoiceID: invoice.ID,
		Deleted:   deleted,
		Created:   len(followUps),
		FollowUps: followUps,
	}, nil
}

// build renders one follow-up per step in step order. Steps whose date is already
// covered by a non-pending row of the current reminder cycle are not recreated.
func (g *FollowUpGenerator) build(ctx context.Context, invoice *domain.Invoice, schedule *domain.Schedule, history []*domain.FollowUp) ([]*domain.FollowUp, error) {
	if !schedule.IsActive || len(schedule.Steps) == 0 {
		return nil, nil
	}

	steps := orderedSteps(schedule.Steps)

	templates, err := g.templateRepo.GetByIDs(ctx, invoice.AccountID, templateIDs(steps))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	covered := coveredDates(invoice, history)
	vars := renderVars(invoice)
	createdAt := g.now()

	followUps := make([]*domain.FollowUp, 0, len(steps))
	for _, step := range steps {
		template, ok := templates[step.TemplateID]
		if !ok {
			return nil, customError.WrapTemplateNotFound(step.TemplateID.String())
		}

		scheduledDate := utils.ScheduledDate(invoice.DueDate, step.DayOffset)
		key := dateKey(scheduledDate)
		if covered[key] > 0 {
			covered[key]--
			continue
		}

		vars["daysOverdue"] = strconv.Itoa(utils.DaysOverdue(invoice.DueDate, scheduledDate))
		if unknown := g.unknownPlaceholders(template, vars); len(unknown) > 0 {
			g.logger.WithFields(logrus.Fields{
				"template_id":  template.ID,
				"placeholders": unknown,
			}).Warn("template placeholders have no value")
		}

		stepID := step.ID
		followUps = append(followUps, &domain.FollowUp{
			ID:             uuid.New(),
			InvoiceID:      invoice.ID,
			ScheduleStepID: &stepID,
			ScheduledDate:  scheduledDate,
			Status:         domain.FollowUpStatusPending,
			Subject:        g.renderer.Render(template.Subject, vars),
			Body:           g.renderer.Render(template.Body, vars),
			CreatedAt:      createdAt,
		})
	}

	return followUps, nil
}

func (g *FollowUpGenerator) unknownPlaceholders(template *domain.Template, vars map[string]string) []string {
	var unknown []string
	for _, key := range g.renderer.Placeholders(template.Subject + "\n" + template.Body) {
		if _, ok := vars[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

// acceptsReminders is false for paused invoices so regeneration only prunes their pending rows
func acceptsReminders(invoice *domain.Invoice) bool {
	if !invoice.RemindersEnabled {
		return false
	}
	return invoice.Status == domain.InvoiceStatusPending || invoice.Status == domain.InvoiceStatusOverdue
}

func orderedSteps(steps []*domain.ScheduleStep) []*domain.ScheduleStep {
	ordered := make([]*domain.ScheduleStep, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})
	return ordered
}

func templateIDs(steps []*domain.ScheduleStep) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(steps))
	ids := make([]uuid.UUID, 0, len(steps))
	for _, step := range steps {
		if !seen[step.TemplateID] {
			seen[step.TemplateID] = true
			ids = append(ids, step.TemplateID)
		}
	}
	return ids
}

// coveredDates counts non-pending rows per scheduled date, ignoring rows from before the last reminder reset
func coveredDates(invoice *domain.Invoice, history []*domain.FollowUp) map[string]int {
	covered := make(map[string]int)
	for _, f := range history {
		if f.Status == domain.FollowUpStatusPending {
			continue
		}
		if invoice.RemindersResetAt != nil && f.CreatedAt.Before(*invoice.RemindersResetAt) {
			continue
		}
		covered[dateKey(f.ScheduledDate)]++
	}
	return covered
}

func renderVars(invoice *domain.Invoice) map[string]string {
	return map[string]string{
		"clientName":    invoice.ClientName,
		"amount":        utils.FormatAmount(invoice.Amount),
		"currency":      invoice.Currency,
		"dueDate":       invoice.DueDate.UTC().Format(utils.DueDateLayout),
		"invoiceNumber": invoice.InvoiceNumber,
	}
}

func dateKey(t time.Time) string {
	return utils.StartOfDay(t).Format("2006-01-02")
}
