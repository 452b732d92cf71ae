package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/eduvita-api/api/swagger"
	"github.com/noah-isme/eduvita-api/internal/handler"
	"github.com/noah-isme/eduvita-api/internal/repository"
	"github.com/noah-isme/eduvita-api/internal/service"
	"github.com/noah-isme/eduvita-api/pkg/cache"
	"github.com/noah-isme/eduvita-api/pkg/coderunner"
	"github.com/noah-isme/eduvita-api/pkg/config"
	"github.com/noah-isme/eduvita-api/pkg/database"
	"github.com/noah-isme/eduvita-api/pkg/export"
	"github.com/noah-isme/eduvita-api/pkg/logger"
	"github.com/noah-isme/eduvita-api/pkg/mail"
	"github.com/noah-isme/eduvita-api/pkg/storage"
)

// @title EduVita API
// @version 1.0.0
// @description Timetable generation, exam seating, accounts and the timed coding test
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	app, err := buildApp(cfg, db, rdb, logr)
	if err != nil {
		logr.Fatal("failed to build services", zap.Error(err))
	}

	app.mail.Start(ctx)
	defer app.mail.Stop()
	go app.seating.RunCleanup(ctx, cfg.Exports.CleanupInterval)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
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

// app holds the services the router and background workers need.
type app struct {
	auth      *service.AuthService
	oauth     *service.OAuthService
	users     *service.UserService
	timetable *service.TimetableService
	seating   *service.SeatingService
	tests     *service.CodingTestService
	dashboard *service.DashboardService
	metrics   *service.MetricsService
	mail      *service.MailDispatcher
	audit     *repository.AuditRepository
	pings     map[string]handler.Pinger
}

func buildApp(cfg *config.Config, db *sqlx.DB, rdb *redis.Client, logr *zap.Logger) (*app, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	seatChartRepo := repository.NewSeatChartRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	sessionRepo := repository.NewTestSessionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(rdb, logr), metrics, cfg.Timetable.CacheTTL, logr, true)

	var mailer mail.Mailer = mail.NewConsoleMailer(logr)
	if cfg.Mail.Provider == "sendgrid" {
		mailer = mail.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	}
	dispatcher := service.NewMailDispatcher(mailer, metrics, logr, service.MailDispatcherConfig{
		Workers:    cfg.Mail.Workers,
		Retries:    cfg.Mail.Retries,
		RetryDelay: 2 * time.Second,
	})

	authSvc := service.NewAuthService(userRepo, auditRepo, repository.NewOTPRepository(rdb), dispatcher, metrics, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "eduvita-api",
		OTPTTL:             cfg.Mail.OTPTTL,
	})

	callback := func(provider string) string {
		return cfg.OAuth.RedirectBase + cfg.APIPrefix + "/auth/oauth/" + provider + "/callback"
	}
	oauthSvc := service.NewOAuthService(repository.NewOAuthStateRepository(rdb), authSvc, cfg.OAuth.StateTTL, logr,
		service.NewGoogleProvider(service.OAuthClientConfig{
			ClientID: cfg.OAuth.GoogleClientID, ClientSecret: cfg.OAuth.GoogleClientSecret, RedirectURL: callback("google"),
		}),
		service.NewGitHubProvider(service.OAuthClientConfig{
			ClientID: cfg.OAuth.GitHubClientID, ClientSecret: cfg.OAuth.GitHubClientSecret, RedirectURL: callback("github"),
		}),
	)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init export storage: %w", err)
	}
	pdf := export.NewPDFExporter()

	seatingSvc := service.NewSeatingService(service.SeatingServiceParams{
		Repo:      seatChartRepo,
		Store:     store,
		Signer:    storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		PDF:       pdf,
		Audit:     auditRepo,
		Cache:     cacheSvc,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
		Config: service.SeatingConfig{
			DownloadBase:     cfg.APIPrefix + "/files",
			RetentionTTL:     cfg.Exports.RetentionTTL,
			MaxUploadBytes:   cfg.Exports.MaxUploadBytes,
			AllowedMIMETypes: cfg.Exports.AllowedMIMETypes,
		},
	})

	testsSvc := service.NewCodingTestService(service.CodingTestServiceParams{
		Questions:   questionRepo,
		Sessions:    sessionRepo,
		Submissions: submissionRepo,
		Runner:      coderunner.New(cfg.Tests.RunnerURL, cfg.Tests.RunnerTimeout),
		Audit:       auditRepo,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
		Config: service.CodingTestConfig{
			Duration:         cfg.Tests.Duration,
			Reattempts:       cfg.Tests.Reattempts,
			MaxCodeSizeBytes: cfg.Tests.MaxCodeSizeBytes,
		},
	})

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:       userRepo,
		Timetables:  timetableRepo,
		SeatCharts:  seatChartRepo,
		Submissions: submissionRepo,
		Sessions:    sessionRepo,
		Cache:       cacheSvc,
		Logger:      logr,
		Config:      service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	return &app{
		auth:      authSvc,
		oauth:     oauthSvc,
		users:     service.NewUserService(userRepo, auditRepo, validate, logr),
		timetable: service.NewTimetableService(timetableRepo, cacheSvc, auditRepo, metrics, pdf, validate, logr, cfg.Timetable.CacheTTL),
		seating:   seatingSvc,
		tests:     testsSvc,
		dashboard: dashboardSvc,
		metrics:   metrics,
		mail:      dispatcher,
		audit:     auditRepo,
		pings: map[string]handler.Pinger{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}, nil
}
