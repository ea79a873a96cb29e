package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateInvoiceRequest) (*domain.InvoiceResponse, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.InvoiceResponse, error) {
	args := m.Called(ctx, accountID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Update(ctx context.Context, accountID, invoiceID uuid.UUID, req *domain.UpdateInvoiceRequest) (*domain.InvoiceResponse, error) {
	args := m.Called(ctx, accountID, invoiceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) ReminderStatus(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.ReminderStatusResponse, error) {
	args := m.Called(ctx, accountID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderStatusResponse), args.Error(1)
}

func (m *MockInvoiceService) Regenerate(ctx context.Context, accountID, invoiceID uuid.UUID) (*domain.RegenerateResult, error) {
	args := m.Called(ctx, accountID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegenerateResult), args.Error(1)
}

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateScheduleRequest) (*domain.Schedule, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) Get(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, accountID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Schedule, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) UpdateSteps(ctx context.Context, accountID, scheduleID uuid.UUID, req *domain.UpdateScheduleStepsRequest) (*domain.ScheduleChangeResponse, error) {
	args := m.Called(ctx, accountID, scheduleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleChangeResponse), args.Error(1)
}

func (m *MockScheduleService) SetActive(ctx context.Context, accountID, scheduleID uuid.UUID, active bool) (*domain.ScheduleChangeResponse, error) {
	args := m.Called(ctx, accountID, scheduleID, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleChangeResponse), args.Error(1)
}

func (m *MockScheduleService) SetDefault(ctx context.Context, accountID, scheduleID uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, accountID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleService) Delete(ctx context.Context, accountID, scheduleID uuid.UUID) error {
	args := m.Called(ctx, accountID, scheduleID)
	return args.Error(0)
}

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateTemplateRequest) (*domain.TemplateResponse, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TemplateResponse), args.Error(1)
}

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) Run(ctx context.Context) (*domain.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepResult), args.Error(1)
}
