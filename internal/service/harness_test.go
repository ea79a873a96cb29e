package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/invoice-followups/internal/cache"
	"github.com/segyhp/invoice-followups/internal/config"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/internal/mailer"
	"github.com/segyhp/invoice-followups/internal/metrics"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type recordingGateway struct {
	mu      sync.Mutex
	sent    []*mailer.Message
	failFor map[string]error
}

func (g *recordingGateway) Send(_ context.Context, msg *mailer.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failFor[msg.To]; ok {
		return err
	}
	g.sent = append(g.sent, msg)
	return nil
}

// harness wires the real services over the in-memory store, a miniredis lock and a recording gateway
type harness struct {
	store     *memStore
	accountID uuid.UUID
	clock     *testClock
	generator *FollowUpGenerator
	invoices  *InvoiceService
	schedules *ScheduleService
	sweep     *DeliverySweep
	gateway   *recordingGateway
	redis     *miniredis.Miniredis
	template  *domain.Template
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	logger, _ := test.NewNullLogger()
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	generator := NewFollowUpGenerator(store.invoiceRepo(), store.scheduleRepo(), store.templateRepo(), store.followUpRepo(), logger)
	generator.now = clock.Now

	invoices := NewInvoiceService(store.invoiceRepo(), store.scheduleRepo(), store.followUpRepo(), generator, logger)
	invoices.now = clock.Now

	schedules := NewScheduleService(store.scheduleRepo(), store.templateRepo(), store.invoiceRepo(), generator, logger)
	schedules.now = clock.Now

	mr := miniredis.RunT(t)
	locker := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { locker.Close() })

	gateway := &recordingGateway{failFor: map[string]error{}}
	sweep := NewDeliverySweep(
		store.followUpRepo(),
		store.invoiceRepo(),
		store.emailLogRepo(),
		gateway,
		locker,
		metrics.New(prometheus.NewRegistry()),
		config.ReminderConfig{DailyCapPerInvoice: 1, BatchSize: 100, LockTTL: time.Minute},
		logger,
	)
	sweep.now = clock.Now

	accountID := uuid.New()
	store.entitled[accountID] = true

	h := &harness{
		store:     store,
		accountID: accountID,
		clock:     clock,
		generator: generator,
		invoices:  invoices,
		schedules: schedules,
		sweep:     sweep,
		gateway:   gateway,
		redis:     mr,
	}
	h.template = h.addTemplate(t, accountID)
	return h
}

func (h *harness) addTemplate(t *testing.T, accountID uuid.UUID) *domain.Template {
	t.Helper()
	tmpl := &domain.Template{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      "Friendly nudge",
		Subject:   "Invoice {invoiceNumber} reminder",
		Body:      "Hi {clientName},\nYou owe {amount} {currency}, due {dueDate}. Days overdue: {daysOverdue}.",
	}
	require.NoError(t, h.store.templateRepo().Create(context.Background(), tmpl))
	return tmpl
}

func (h *harness) addSchedule(t *testing.T, offsets ...int) *domain.Schedule {
	t.Helper()
	return h.addScheduleFor(t, h.accountID, h.template, offsets...)
}

func (h *harness) addScheduleFor(t *testing.T, accountID uuid.UUID, tmpl *domain.Template, offsets ...int) *domain.Schedule {
	t.Helper()
	steps := make([]*domain.ScheduleStepRequest, len(offsets))
	for i, offset := range offsets {
		steps[i] = &domain.ScheduleStepRequest{TemplateID: tmpl.ID, DayOffset: offset, Order: i}
	}
	schedule, err := h.schedules.Create(context.Background(), accountID, &domain.CreateScheduleRequest{
		Name:  "Standard",
		Steps: steps,
	})
	require.NoError(t, err)
	return schedule
}

func (h *harness) addInvoice(t *testing.T, due time.Time, scheduleID uuid.UUID) *domain.InvoiceResponse {
	t.Helper()
	return h.addInvoiceFor(t, h.accountID, "ann@example.com", due, scheduleID)
}

func (h *harness) addInvoiceFor(t *testing.T, accountID uuid.UUID, email string, due time.Time, scheduleID uuid.UUID) *domain.InvoiceResponse {
	t.Helper()
	resp, err := h.invoices.Create(context.Background(), accountID, &domain.CreateInvoiceRequest{
		InvoiceNumber: "INV-1001",
		ClientName:    "Ann",
		ClientEmail:   email,
		Amount:        decimal.RequireFromString("150"),
		Currency:      "USD",
		DueDate:       due,
		ScheduleID:    &scheduleID,
	})
	require.NoError(t, err)
	return resp
}

// at moves the clock to 09:00 UTC of day
func (h *harness) at(day time.Time) {
	h.clock.now = day.Add(9 * time.Hour)
}

func (h *harness) runSweep(t *testing.T) *domain.SweepResult {
	t.Helper()
	result, err := h.sweep.Run(context.Background())
	require.NoError(t, err)
	return result
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func byStatus(followUps []*domain.FollowUp, status string) []*domain.FollowUp {
	var out []*domain.FollowUp
	for _, f := range followUps {
		if f.Status == status {
			out = append(out, f)
		}
	}
	return out
}

func scheduledDates(followUps []*domain.FollowUp) []time.Time {
	dates := make([]time.Time, len(followUps))
	for i, f := range followUps {
		dates[i] = f.ScheduledDate
	}
	return dates
}

var (
	errMailboxFull = errors.New("550 mailbox full")
	errStoreDown   = errors.New("connection reset by peer")
)
