package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/scholarship-api/api/swagger"
	"github.com/noah-isme/scholarship-api/internal/handler"
	"github.com/noah-isme/scholarship-api/internal/repository"
	"github.com/noah-isme/scholarship-api/internal/service"
	"github.com/noah-isme/scholarship-api/pkg/cache"
	"github.com/noah-isme/scholarship-api/pkg/config"
	"github.com/noah-isme/scholarship-api/pkg/database"
	"github.com/noah-isme/scholarship-api/pkg/export"
	"github.com/noah-isme/scholarship-api/pkg/logger"
)

// @title Scholarship Lifecycle API
// @version 1.0.0
// @description Scholarship applications, verification, awards, interviews, renewals and stipends.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; cache and notifications disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
	}

	app := buildApp(cfg, logr, db, redisClient)

	app.notifications.Start(ctx)
	defer app.notifications.Stop()

	if cfg.Renewals.RemindersEnabled {
		go runRenewalReminders(ctx, app.renewals, cfg.Renewals.ReminderInterval, logr)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	metrics       *service.MetricsService
	auth          *service.AuthService
	notifications *service.NotificationService
	renewals      *service.RenewalService
	audit         *repository.AuditRepository

	scholarshipHandler *handler.ScholarshipHandler
	applicationHandler *handler.ApplicationHandler
	interviewHandler   *handler.InterviewHandler
	renewalHandler     *handler.RenewalHandler
	auditHandler       *handler.AuditHandler
	metricsHandler     *handler.MetricsHandler
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *application {
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scholarships.CacheTTL, logr, cfg.Scholarships.CacheEnabled)

	slotRepo := repository.NewSlotRepository(db)
	appRepo := repository.NewApplicationRepository(db, slotRepo)
	scholarshipRepo := repository.NewScholarshipRepository(db)
	stipendRepo := repository.NewStipendRepository(db)
	termRepo := repository.NewTermRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)
	renewalRepo := repository.NewRenewalRepository(db)

	notifications := service.NewNotificationService(
		repository.NewNotificationPublisher(redisClient, cfg.Notifications.Channel),
		metrics,
		service.NotificationConfig{
			Enabled:    cfg.Notifications.Enabled,
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
		},
		logr,
	)

	auth := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, logr)

	slots := service.NewSlotAllocator(slotRepo)
	interviews := service.NewInterviewService(interviewRepo, appRepo, notifications, auditRepo, logr)
	applications := service.NewApplicationService(appRepo, scholarshipRepo, slots, logr,
		service.WithNotifier(notifications),
		service.WithAuditLogger(auditRepo),
		service.WithTransitionMetrics(metrics),
		service.WithStipendLedger(service.NewStipendLedger(stipendRepo)),
		service.WithInterviewScheduler(interviews),
		service.WithRenewalLookup(renewalRepo),
	)

	calendar := service.NewRenewalCalendar(termRepo, service.RenewalWindowConfig{
		OpenDays:  cfg.Renewals.WindowOpenDays,
		GraceDays: cfg.Renewals.DeadlineGraceDays,
	})
	renewals := service.NewRenewalService(renewalRepo, appRepo, scholarshipRepo, calendar, logr,
		service.WithRenewalNotifier(notifications),
		service.WithRenewalAudit(auditRepo),
		service.WithReminderConfig(service.ReminderConfig{Lead: cfg.Renewals.ReminderLead}),
	)

	scholarships := service.NewScholarshipService(scholarshipRepo, slots, cacheSvc, cfg.Scholarships.CacheTTL, auditRepo, logr)
	exports := service.NewExportService(appRepo, scholarshipRepo, logr, export.NewCSVExporter(), export.NewPDFExporter())

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = redisPinger{client: redisClient}
	}

	return &application{
		metrics:       metrics,
		auth:          auth,
		notifications: notifications,
		renewals:      renewals,
		audit:         auditRepo,

		scholarshipHandler: handler.NewScholarshipHandler(scholarships, exports),
		applicationHandler: handler.NewApplicationHandler(applications),
		interviewHandler:   handler.NewInterviewHandler(interviews),
		renewalHandler:     handler.NewRenewalHandler(renewals),
		auditHandler:       handler.NewAuditHandler(service.NewAuditTrailService(auditRepo, appRepo)),
		metricsHandler:     handler.NewMetricsHandler(metrics, checks),
	}
}

// runRenewalReminders sends deadline reminders once at start and then every interval.
func runRenewalReminders(ctx context.Context, renewals *service.RenewalService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		sent, err := renewals.NotifyUpcomingRenewalDeadlines(ctx)
		if err != nil {
			logr.Warn("renewal reminder run failed", zap.Error(err))
		} else if sent > 0 {
			logr.Info("renewal reminders sent", zap.Int("count", sent))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
