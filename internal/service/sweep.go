package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/config"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/internal/mailer"
	"github.com/segyhp/invoice-followups/internal/metrics"
	"github.com/segyhp/invoice-followups/internal/repository"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/segyhp/invoice-followups/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const sweepLockKey = "lock:followup-sweep"

// Locker is a cross-process mutual exclusion lock with expiry
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

type sweepOutcome int

const (
	outcomeSent sweepOutcome = iota
	outcomeRateLimited
	outcomeAlreadyProcessed
	outcomeFailed
)

var outcomeLabels = map[sweepOutcome]string{
	outcomeSent:             "sent",
	outcomeRateLimited:      "rate_limited",
	outcomeAlreadyProcessed: "already_processed",
	outcomeFailed:           "failed",
}

// DeliverySweep sends today's due follow-ups at most once each
type DeliverySweep struct {
	followUpRepo repository.FollowUpRepository
	invoiceRepo  repository.InvoiceRepository
	emailLogRepo repository.EmailLogRepository
	gateway      mailer.Gateway
	locker       Locker
	metrics      *metrics.Metrics
	limiter      *rate.Limiter
	config       config.ReminderConfig
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewDeliverySweep(
	followUpRepo repository.FollowUpRepository,
	invoiceRepo repository.InvoiceRepository,
	emailLogRepo repository.EmailLogRepository,
	gateway mailer.Gateway,
	locker Locker,
	metrics *metrics.Metrics,
	config config.ReminderConfig,
	logger logrus.FieldLogger,
) *DeliverySweep {
	limit := rate.Inf
	if config.SendRatePerSecond > 0 {
		limit = rate.Limit(config.SendRatePerSecond)
	}

	return &DeliverySweep{
		followUpRepo: followUpRepo,
		invoiceRepo:  invoiceRepo,
		emailLogRepo: emailLogRepo,
		gateway:      gateway,
		locker:       locker,
		metrics:      metrics,
		limiter:      rate.NewLimiter(limit, 1),
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// sweepBatch holds the per-run counters loaded once for all candidates
type sweepBatch struct {
	from, to  time.Time
	sentToday map[uuid.UUID]int
	counts    map[uuid.UUID]*domain.FollowUpCounts
}

// Run processes up to BatchSize follow-ups due today. A failed send only affects its own
// candidate; a store failure stops the run and returns the partial result with the error.
func (s *DeliverySweep) Run(ctx context.Context) (*domain.SweepResult, error) {
	started := s.now()
	result := &domain.SweepResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}
	log := s.logger.WithField("run_id", result.RunID)

	token, acquired, err := s.locker.AcquireLock(ctx, sweepLockKey, s.config.LockTTL)
	if err != nil {
		s.metrics.ObserveSweep("failed", started)
		return nil, customError.WrapCacheError(err)
	}
	if !acquired {
		s.metrics.ObserveSweep("locked", started)
		return nil, customError.WrapSweepInProgress()
	}
	defer func() {
		// the run's ctx may already be cancelled
		if err := s.locker.ReleaseLock(context.Background(), sweepLockKey, token); err != nil {
			log.WithError(err).Warn("failed to release sweep lock")
		}
	}()

	err = s.run(ctx, result, log)
	result.FinishedAt = s.now()

	if err != nil {
		s.metrics.ObserveSweep("failed", started)
		log.WithError(err).WithFields(summaryFields(result)).Error("follow-up sweep aborted")
		return result, err
	}

	s.metrics.ObserveSweep("ok", started)
	log.WithFields(summaryFields(result)).Info("follow-up sweep finished")
	return result, nil
}

func (s *DeliverySweep) run(ctx context.Context, result *domain.SweepResult, log logrus.FieldLogger) error {
	from, to := utils.DayWindow(result.StartedAt)

	candidates, err := s.followUpRepo.ListDueCandidates(ctx, from, to, s.config.BatchSize)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	excluded, err := s.followUpRepo.CountUnentitledDue(ctx, from, to)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	result.Eligible = len(candidates)
	result.ExcludedUnentitled = excluded
	result.TotalCandidates = len(candidates) + excluded
	s.metrics.SweepUnentitled.Add(float64(excluded))

	if len(candidates) == 0 {
		return nil
	}

	invoiceIDs := distinctInvoiceIDs(candidates)

	sentToday, err := s.emailLogRepo.CountSuccessfulByInvoices(ctx, invoiceIDs, from, to)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	counts, err := s.followUpRepo.CountsByInvoices(ctx, invoiceIDs)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	if sentToday == nil {
		sentToday = make(map[uuid.UUID]int)
	}

	batch := &sweepBatch{from: from, to: to, sentToday: sentToday, counts: counts}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := s.process(ctx, candidate, batch, log)
		if err != nil {
			return err
		}

		s.metrics.SweepFollowUps.WithLabelValues(outcomeLabels[outcome]).Inc()
		switch outcome {
		case outcomeSent:
			result.Sent++
		case outcomeRateLimited:
			result.Skipped++
			result.RateLimited++
		case outcomeAlreadyProcessed:
			result.Skipped++
			result.AlreadyProcessed++
		case outcomeFailed:
			result.Failed++
		}
	}

	return nil
}

func (s *DeliverySweep) process(ctx context.Context, c *domain.SweepCandidate, batch *sweepBatch, log logrus.FieldLogger) (sweepOutcome, error) {
	log = log.WithFields(logrus.Fields{
		"follow_up_id": c.FollowUpID,
		"invoice_id":   c.InvoiceID,
	})

	// An attempt logged today means another run already handled this follow-up
	processed, err := s.emailLogRepo.ExistsForFollowUp(ctx, c.FollowUpID, batch.from, batch.to)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	if processed {
		return outcomeAlreadyProcessed, nil
	}

	if batch.sentToday[c.InvoiceID] >= s.config.DailyCapPerInvoice {
		reason := fmt.Sprintf("daily reminder limit reached (%d per invoice)", s.config.DailyCapPerInvoice)
		skipped, err := s.followUpRepo.MarkSkipped(ctx, c.FollowUpID, reason)
		if err != nil {
			return 0, customError.WrapDatabaseError(err)
		}
		if !skipped {
			return outcomeAlreadyProcessed, nil
		}
		log.Info("follow-up skipped by daily limit")
		return outcomeRateLimited, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	sendErr := s.gateway.Send(ctx, &mailer.Message{
		To:       c.ClientEmail,
		ToName:   c.ClientName,
		Subject:  c.Subject,
		HTMLBody: utils.NewlinesToBreaks(c.Body),
		TextBody: c.Body,
	})
	sentAt := s.now()

	entry := &domain.EmailLog{
		ID:         uuid.New(),
		FollowUpID: c.FollowUpID,
		InvoiceID:  c.InvoiceID,
		Recipient:  c.ClientEmail,
		Subject:    c.Subject,
		Success:    sendErr == nil,
		SentAt:     sentAt,
	}
	if sendErr != nil {
		message := sendErr.Error()
		entry.ErrorMessage = &message
	}
	if err := s.emailLogRepo.Create(ctx, entry); err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	if sendErr != nil {
		if _, err := s.followUpRepo.MarkFailed(ctx, c.FollowUpID, sendErr.Error()); err != nil {
			return 0, customError.WrapDatabaseError(err)
		}
		log.WithError(sendErr).Warn("follow-up delivery failed")
		return outcomeFailed, nil
	}

	batch.sentToday[c.InvoiceID]++

	marked, err := s.followUpRepo.MarkSent(ctx, c.FollowUpID, sentAt)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	if !marked {
		log.Warn("follow-up left PENDING before it was marked sent")
	}

	if err := s.invoiceRepo.UpdateLastReminderSentAt(ctx, c.InvoiceID, sentAt); err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	if marked {
		if err := s.detectCompletion(ctx, c.InvoiceID, batch); err != nil {
			return 0, err
		}
	}

	log.Info("follow-up sent")
	return outcomeSent, nil
}

// detectCompletion marks the invoice completed once every one of its follow-ups is SENT
func (s *DeliverySweep) detectCompletion(ctx context.Context, invoiceID uuid.UUID, batch *sweepBatch) error {
	counts, ok := batch.counts[invoiceID]
	if !ok {
		return nil
	}

	counts.Sent++
	if counts.Total == 0 || counts.Sent < counts.Total {
		return nil
	}

	if err := s.invoiceRepo.MarkRemindersCompleted(ctx, invoiceID, counts.Total); err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": invoiceID,
		"total":      counts.Total,
	}).Info("invoice reminders completed")

	return nil
}

func distinctInvoiceIDs(candidates []*domain.SweepCandidate) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(candidates))
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		if !seen[c.InvoiceID] {
			seen[c.InvoiceID] = true
			ids = append(ids, c.InvoiceID)
		}
	}
	return ids
}

func summaryFields(result *domain.SweepResult) logrus.Fields {
	return logrus.Fields{
		"total_candidates":    result.TotalCandidates,
		"eligible":            result.Eligible,
		"excluded_unentitled": result.ExcludedUnentitled,
		"sent":                result.Sent,
		"skipped":             result.Skipped,
		"rate_limited":        result.RateLimited,
		"already_processed":   result.AlreadyProcessed,
		"failed":              result.Failed,
	}
}
