package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segyhp/invoice-followups/internal/cache"
	"github.com/segyhp/invoice-followups/internal/config"
	"github.com/segyhp/invoice-followups/internal/logger"
	"github.com/segyhp/invoice-followups/internal/mailer"
	"github.com/segyhp/invoice-followups/internal/metrics"
	"github.com/segyhp/invoice-followups/internal/repository"
	"github.com/segyhp/invoice-followups/internal/service"
	customError "github.com/segyhp/invoice-followups/pkg/errors"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)
	log.Info("Starting follow-up scheduler...")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Server.Env, Debug: !cfg.IsProduction()}); err != nil {
			log.WithError(err).Warn("sentry disabled")
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	redisClient, err := cache.NewClient(context.Background(), cfg.Redis.URL, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize redis")
	}
	defer redisClient.Close()

	gateway, err := mailer.NewGateway(cfg.Mail, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize mail gateway")
	}

	sweep := service.NewDeliverySweep(
		repository.NewFollowUpRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewEmailLogRepository(db),
		gateway,
		redisClient,
		metrics.New(prometheus.DefaultRegisterer),
		cfg.Reminders,
		log,
	)

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.SchedulerLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
	)

	if _, err := c.AddFunc(cfg.Scheduler.Spec, func() { runSweep(sweep, cfg.Reminders.LockTTL, log) }); err != nil {
		log.WithError(err).WithField("spec", cfg.Scheduler.Spec).Fatal("Error scheduling follow-up sweep")
	}

	c.Start()
	log.WithFields(logrus.Fields{
		"spec":     cfg.Scheduler.Spec,
		"timezone": cfg.Scheduler.Timezone,
	}).Info("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

// runSweep bounds one run by the lock TTL so a stuck send never outlives the lock
func runSweep(sweep *service.DeliverySweep, timeout time.Duration, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := sweep.Run(ctx)
	if err != nil {
		if customError.Code(err) == customError.ErrCodeSweepInProgress {
			log.Info("Follow-up sweep already running elsewhere, skipping")
			return
		}
		sentry.CaptureException(err)
		log.WithError(err).Error("Follow-up sweep failed")
		return
	}

	log.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"sent":   result.Sent,
		"failed": result.Failed,
	}).Info("Follow-up sweep finished")
}
