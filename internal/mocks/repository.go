package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, accountID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, accountID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, accountID, invoiceID)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ListRegenerableBySchedule(ctx context.Context, accountID, scheduleID uuid.UUID) ([]*domain.Invoice, error) {
	args := m.Called(ctx, accountID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountBySchedule(ctx context.Context, accountID, scheduleID uuid.UUID) (int, error) {
	args := m.Called(ctx, accountID, scheduleID)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateLastReminderSentAt(ctx context.Context, invoiceID uuid.UUID, sentAt time.Time) error {
	args := m.Called(ctx, invoiceID, sentAt)
	return args.Error(0)
}

func (m *MockInvoiceRepository) MarkRemindersCompleted(ctx context.Context, invoiceID uuid.UUID, total int) error {
	args := m.Called(ctx, invoiceID, total)
	return args.Error(0)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, accountID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) GetDefault(ctx context.Context, accountID uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Schedule, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) ReplaceSteps(ctx context.Context, scheduleID uuid.UUID, steps []*domain.ScheduleStep) error {
	args := m.Called(ctx, scheduleID, steps)
	return args.Error(0)
}

func (m *MockScheduleRepository) SetActive(ctx context.Context, accountID, scheduleID uuid.UUID, active bool) error {
	args := m.Called(ctx, accountID, scheduleID, active)
	return args.Error(0)
}

func (m *MockScheduleRepository) SetDefault(ctx context.Context, accountID, scheduleID uuid.UUID) error {
	args := m.Called(ctx, accountID, scheduleID)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, accountID, scheduleID uuid.UUID) error {
	args := m.Called(ctx, accountID, scheduleID)
	return args.Error(0)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) GetByIDs(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Template, error) {
	args := m.Called(ctx, accountID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*domain.Template), args.Error(1)
}

type MockFollowUpRepository struct {
	mock.Mock
}

func (m *MockFollowUpRepository) CreateBatch(ctx context.Context, followUps []*domain.FollowUp) error {
	args := m.Called(ctx, followUps)
	return args.Error(0)
}

func (m *MockFollowUpRepository) ReplacePending(ctx context.Context, invoiceID uuid.UUID, followUps []*domain.FollowUp) (int, error) {
	args := m.Called(ctx, invoiceID, followUps)
	return args.Int(0), args.Error(1)
}

func (m *MockFollowUpRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*domain.FollowUp, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FollowUp), args.Error(1)
}

func (m *MockFollowUpRepository) CountSent(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	args := m.Called(ctx, invoiceID)
	return args.Int(0), args.Error(1)
}

func (m *MockFollowUpRepository) ListDueCandidates(ctx context.Context, from, to time.Time, limit int) ([]*domain.SweepCandidate, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SweepCandidate), args.Error(1)
}

func (m *MockFollowUpRepository) CountUnentitledDue(ctx context.Context, from, to time.Time) (int, error) {
	args := m.Called(ctx, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockFollowUpRepository) CountsByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]*domain.FollowUpCounts, error) {
	args := m.Called(ctx, invoiceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*domain.FollowUpCounts), args.Error(1)
}

func (m *MockFollowUpRepository) MarkSent(ctx context.Context, followUpID uuid.UUID, sentAt time.Time) (bool, error) {
	args := m.Called(ctx, followUpID, sentAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowUpRepository) MarkSkipped(ctx context.Context, followUpID uuid.UUID, reason string) (bool, error) {
	args := m.Called(ctx, followUpID, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowUpRepository) MarkFailed(ctx context.Context, followUpID uuid.UUID, reason string) (bool, error) {
	args := m.Called(ctx, followUpID, reason)
	return args.Bool(0), args.Error(1)
}

type MockEmailLogRepository struct {
	mock.Mock
}

func (m *MockEmailLogRepository) Create(ctx context.Context, log *domain.EmailLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockEmailLogRepository) ExistsForFollowUp(ctx context.Context, followUpID uuid.UUID, from, to time.Time) (bool, error) {
	args := m.Called(ctx, followUpID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockEmailLogRepository) CountSuccessfulByInvoices(ctx context.Context, invoiceIDs []uuid.UUID, from, to time.Time) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, invoiceIDs, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}
