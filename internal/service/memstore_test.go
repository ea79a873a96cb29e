package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/invoice-followups/internal/domain"
)

// memStore is an in-memory stand-in for the Postgres repositories, shared by the
// per-aggregate views below so multi-step flows can be exercised end to end.
type memStore struct {
	mu        sync.Mutex
	invoices  map[uuid.UUID]*domain.Invoice
	schedules map[uuid.UUID]*domain.Schedule
	templates map[uuid.UUID]*domain.Template
	followUps []*domain.FollowUp
	logs      []*domain.EmailLog
	entitled  map[uuid.UUID]bool

	// replaceErr makes ReplacePending fail while set
	replaceErr error
}

func newMemStore() *memStore {
	return &memStore{
		invoices:  make(map[uuid.UUID]*domain.Invoice),
		schedules: make(map[uuid.UUID]*domain.Schedule),
		templates: make(map[uuid.UUID]*domain.Template),
		entitled:  make(map[uuid.UUID]bool),
	}
}

func (s *memStore) invoiceRepo() *memInvoices   { return &memInvoices{s} }
func (s *memStore) scheduleRepo() *memSchedules { return &memSchedules{s} }
func (s *memStore) templateRepo() *memTemplates { return &memTemplates{s} }
func (s *memStore) followUpRepo() *memFollowUps { return &memFollowUps{s} }
func (s *memStore) emailLogRepo() *memEmailLogs { return &memEmailLogs{s} }

// followUpsOf returns copies of the invoice's rows in insertion order
func (s *memStore) followUpsOf(invoiceID uuid.UUID) []*domain.FollowUp {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.FollowUp
	for _, f := range s.followUps {
		if f.InvoiceID == invoiceID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out
}

func (s *memStore) logsOf(invoiceID uuid.UUID) []*domain.EmailLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.EmailLog
	for _, l := range s.logs {
		if l.InvoiceID == invoiceID {
			out = append(out, l)
		}
	}
	return out
}

func (s *memStore) invoice(id uuid.UUID) *domain.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.invoices[id]
	return &cp
}

type memInvoices struct{ *memStore }

func (r *memInvoices) Create(_ context.Context, invoice *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *invoice
	r.invoices[invoice.ID] = &cp
	return nil
}

func (r *memInvoices) GetByID(_ context.Context, accountID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoiceID]
	if !ok || inv.AccountID != accountID {
		return nil, sql.ErrNoRows
	}
	cp := *inv
	return &cp, nil
}

func (r *memInvoices) Update(_ context.Context, invoice *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *invoice
	r.invoices[invoice.ID] = &cp
	return nil
}

func (r *memInvoices) Delete(_ context.Context, accountID, invoiceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invoices, invoiceID)
	kept := r.followUps[:0]
	for _, f := range r.followUps {
		if f.InvoiceID != invoiceID {
			kept = append(kept, f)
		}
	}
	r.followUps = kept
	return nil
}

func (r *memInvoices) ListRegenerableBySchedule(_ context.Context, accountID, scheduleID uuid.UUID) ([]*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Invoice
	for _, inv := range r.invoices {
		if inv.AccountID == accountID && inv.ScheduleID != nil && *inv.ScheduleID == scheduleID &&
			inv.Status == domain.InvoiceStatusPending && inv.RemindersEnabled &&
			!inv.RemindersCompleted && inv.RemindersPausedReason == nil {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *memInvoices) CountBySchedule(_ context.Context, accountID, scheduleID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, inv := range r.invoices {
		if inv.AccountID == accountID && inv.ScheduleID != nil && *inv.ScheduleID == scheduleID {
			count++
		}
	}
	return count, nil
}

func (r *memInvoices) UpdateLastReminderSentAt(_ context.Context, invoiceID uuid.UUID, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invoices[invoiceID]; ok {
		inv.LastReminderSentAt = &sentAt
	}
	return nil
}

func (r *memInvoices) MarkRemindersCompleted(_ context.Context, invoiceID uuid.UUID, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invoices[invoiceID]; ok {
		inv.RemindersCompleted = true
		inv.TotalScheduledReminders = &total
	}
	return nil
}

type memSchedules struct{ *memStore }

func (r *memSchedules) Create(_ context.Context, schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if schedule.IsDefault {
		r.clearDefaults(schedule.AccountID)
	}
	cp := *schedule
	r.schedules[schedule.ID] = &cp
	return nil
}

func (r *memSchedules) GetByID(_ context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[scheduleID]
	if !ok || s.AccountID != accountID {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (r *memSchedules) GetDefault(_ context.Context, accountID uuid.UUID) (*domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.AccountID == accountID && s.IsDefault {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memSchedules) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Schedule{}
	for _, s := range r.schedules {
		if s.AccountID == accountID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memSchedules) ReplaceSteps(_ context.Context, scheduleID uuid.UUID, steps []*domain.ScheduleStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[scheduleID].Steps = steps
	return nil
}

func (r *memSchedules) SetActive(_ context.Context, accountID, scheduleID uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[scheduleID].IsActive = active
	return nil
}

func (r *memSchedules) SetDefault(_ context.Context, accountID, scheduleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearDefaults(accountID)
	r.schedules[scheduleID].IsDefault = true
	return nil
}

func (r *memSchedules) Delete(_ context.Context, accountID, scheduleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schedules, scheduleID)
	return nil
}

func (r *memSchedules) clearDefaults(accountID uuid.UUID) {
	for _, s := range r.schedules {
		if s.AccountID == accountID {
			s.IsDefault = false
		}
	}
}

type memTemplates struct{ *memStore }

func (r *memTemplates) Create(_ context.Context, template *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *template
	r.templates[template.ID] = &cp
	return nil
}

func (r *memTemplates) GetByIDs(_ context.Context, accountID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*domain.Template)
	for _, id := range ids {
		if t, ok := r.templates[id]; ok && t.AccountID == accountID {
			out[id] = t
		}
	}
	return out, nil
}

type memFollowUps struct{ *memStore }

func (r *memFollowUps) CreateBatch(_ context.Context, followUps []*domain.FollowUp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range followUps {
		cp := *f
		r.followUps = append(r.followUps, &cp)
	}
	return nil
}

func (r *memFollowUps) ReplacePending(_ context.Context, invoiceID uuid.UUID, followUps []*domain.FollowUp) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return 0, r.replaceErr
	}
	deleted := 0
	kept := make([]*domain.FollowUp, 0, len(r.followUps))
	for _, f := range r.followUps {
		if f.InvoiceID == invoiceID && f.Status == domain.FollowUpStatusPending {
			deleted++
			continue
		}
		kept = append(kept, f)
	}
	for _, f := range followUps {
		cp := *f
		kept = append(kept, &cp)
	}
	r.followUps = kept
	return deleted, nil
}

func (r *memFollowUps) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]*domain.FollowUp, error) {
	out := r.followUpsOf(invoiceID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out, nil
}

func (r *memFollowUps) CountSent(_ context.Context, invoiceID uuid.UUID) (int, error) {
	return domain.CountFollowUps(r.followUpsOf(invoiceID), domain.FollowUpStatusSent), nil
}

func (r *memFollowUps) due(from, to time.Time, entitled bool) []*domain.SweepCandidate {
	var out []*domain.SweepCandidate
	for _, f := range r.followUps {
		inv := r.invoices[f.InvoiceID]
		if f.Status != domain.FollowUpStatusPending || f.ScheduledDate.Before(from) || !f.ScheduledDate.Before(to) {
			continue
		}
		if inv.Status != domain.InvoiceStatusPending || !inv.RemindersEnabled || r.entitled[inv.AccountID] != entitled {
			continue
		}
		out = append(out, &domain.SweepCandidate{
			FollowUpID:    f.ID,
			InvoiceID:     inv.ID,
			AccountID:     inv.AccountID,
			ScheduledDate: f.ScheduledDate,
			Subject:       f.Subject,
			Body:          f.Body,
			ClientName:    inv.ClientName,
			ClientEmail:   inv.ClientEmail,
			InvoiceNumber: inv.InvoiceNumber,
			Amount:        inv.Amount,
			Currency:      inv.Currency,
		})
	}
	return out
}

func (r *memFollowUps) ListDueCandidates(_ context.Context, from, to time.Time, limit int) ([]*domain.SweepCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.due(from, to, true)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memFollowUps) CountUnentitledDue(_ context.Context, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.due(from, to, false)), nil
}

func (r *memFollowUps) CountsByInvoices(_ context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]*domain.FollowUpCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*domain.FollowUpCounts)
	for _, id := range invoiceIDs {
		counts := &domain.FollowUpCounts{InvoiceID: id}
		for _, f := range r.followUps {
			if f.InvoiceID != id {
				continue
			}
			counts.Total++
			if f.Status == domain.FollowUpStatusSent {
				counts.Sent++
			}
		}
		if counts.Total > 0 {
			out[id] = counts
		}
	}
	return out, nil
}

func (r *memFollowUps) transition(id uuid.UUID, apply func(f *domain.FollowUp)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.followUps {
		if f.ID == id && f.Status == domain.FollowUpStatusPending {
			apply(f)
			return true
		}
	}
	return false
}

func (r *memFollowUps) MarkSent(_ context.Context, followUpID uuid.UUID, sentAt time.Time) (bool, error) {
	return r.transition(followUpID, func(f *domain.FollowUp) {
		f.Status = domain.FollowUpStatusSent
		f.SentAt = &sentAt
		f.ErrorMessage = nil
	}), nil
}

func (r *memFollowUps) MarkSkipped(_ context.Context, followUpID uuid.UUID, reason string) (bool, error) {
	return r.transition(followUpID, func(f *domain.FollowUp) {
		f.Status = domain.FollowUpStatusSkipped
		f.ErrorMessage = &reason
	}), nil
}

func (r *memFollowUps) MarkFailed(_ context.Context, followUpID uuid.UUID, reason string) (bool, error) {
	return r.transition(followUpID, func(f *domain.FollowUp) {
		f.Status = domain.FollowUpStatusFailed
		f.ErrorMessage = &reason
	}), nil
}

type memEmailLogs struct{ *memStore }

func (r *memEmailLogs) Create(_ context.Context, log *domain.EmailLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *memEmailLogs) ExistsForFollowUp(_ context.Context, followUpID uuid.UUID, from, to time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.FollowUpID == followUpID && !l.SentAt.Before(from) && l.SentAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEmailLogs) CountSuccessfulByInvoices(_ context.Context, invoiceIDs []uuid.UUID, from, to time.Time) (map[uuid.UUID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(invoiceIDs))
	for _, id := range invoiceIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID]int)
	for _, l := range r.logs {
		if wanted[l.InvoiceID] && l.Success && !l.SentAt.Before(from) && l.SentAt.Before(to) {
			out[l.InvoiceID]++
		}
	}
	return out, nil
}
