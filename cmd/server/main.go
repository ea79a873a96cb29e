package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segyhp/invoice-followups/internal/cache"
	"github.com/segyhp/invoice-followups/internal/config"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/internal/handler"
	"github.com/segyhp/invoice-followups/internal/logger"
	"github.com/segyhp/invoice-followups/internal/mailer"
	"github.com/segyhp/invoice-followups/internal/metrics"
	"github.com/segyhp/invoice-followups/internal/migrations"
	"github.com/segyhp/invoice-followups/internal/ratelimit"
	"github.com/segyhp/invoice-followups/internal/repository"
	"github.com/segyhp/invoice-followups/internal/service"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/segyhp/invoice-followups/pkg/response"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required for the API server")
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Server.Env, Debug: !cfg.IsProduction()}); err != nil {
			log.WithError(err).Warn("sentry disabled")
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Run(context.Background(), db.DB); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
	}

	redisClient, err := cache.NewClient(context.Background(), cfg.Redis.URL, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize redis")
	}
	defer redisClient.Close()

	gateway, err := mailer.NewGateway(cfg.Mail, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize mail gateway")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	invoiceRepo := repository.NewInvoiceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	followUpRepo := repository.NewFollowUpRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)

	generator := service.NewFollowUpGenerator(invoiceRepo, scheduleRepo, templateRepo, followUpRepo, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, scheduleRepo, followUpRepo, generator, log)
	scheduleService := service.NewScheduleService(scheduleRepo, templateRepo, invoiceRepo, generator, log)
	templateService := service.NewTemplateService(templateRepo, log)
	sweep := service.NewDeliverySweep(followUpRepo, invoiceRepo, emailLogRepo, gateway, redisClient, m, cfg.Reminders, log)

	limiter := ratelimit.New(redisClient.Redis, cfg.RateLimit.RequestsPerMinute, time.Minute, log)

	router := setupRoutes(cfg, log, m, limiter,
		handler.NewInvoiceHandler(invoiceService, log),
		handler.NewScheduleHandler(scheduleService, log),
		handler.NewTemplateHandler(templateService, log),
		handler.NewCronHandler(reportingSweeper{sweep}, cfg.Auth.CronSecret, log),
		handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout),
	)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func setupRoutes(
	cfg *config.Config,
	log logrus.FieldLogger,
	m *metrics.Metrics,
	limiter *ratelimit.Limiter,
	invoiceHandler *handler.InvoiceHandler,
	scheduleHandler *handler.ScheduleHandler,
	templateHandler *handler.TemplateHandler,
	cronHandler *handler.CronHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log), response.CORSMiddleware, m.Middleware)

	// preflight requests only need a matched route so CORSMiddleware can answer them
	router.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// cron trigger authenticates with CRON_SECRET, not a user token
	cronHandler.Register(router.PathPrefix("/api/v1").Subrouter())

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(handler.AuthMiddleware(cfg.Auth.JWTSecret, log), limiter.Middleware(handler.RateLimitKey))
	invoiceHandler.Register(api)
	scheduleHandler.Register(api)
	templateHandler.Register(api)

	return router
}

// reportingSweeper forwards unexpected sweep failures to sentry
type reportingSweeper struct {
	sweep *service.DeliverySweep
}

func (s reportingSweeper) Run(ctx context.Context) (*domain.SweepResult, error) {
	result, err := s.sweep.Run(ctx)
	if err != nil && customError.Code(err) != customError.ErrCodeSweepInProgress {
		sentry.CaptureException(err)
	}
	return result, err
}
