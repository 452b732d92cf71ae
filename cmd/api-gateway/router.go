package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/internal/handler"
	"github.com/noah-isme/eduvita-api/internal/middleware"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/pkg/config"
	"github.com/noah-isme/eduvita-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/eduvita-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/eduvita-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, a *app, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins...))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(a.metrics, a.pings)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	cookie := handler.CookieConfig{TTL: cfg.JWT.Expiration, Secure: cfg.JWT.CookieSecure}
	authHandler := handler.NewAuthHandler(a.auth, cookie)
	oauthHandler := handler.NewOAuthHandler(a.oauth, cfg.FrontendURL, cookie, logr)
	userHandler := handler.NewUserHandler(a.users)
	timetableHandler := handler.NewTimetableHandler(a.timetable)
	seatingHandler := handler.NewSeatingHandler(a.seating, cfg.Exports.MaxUploadBytes)
	testHandler := handler.NewCodingTestHandler(a.tests)
	dashboardHandler := handler.NewDashboardHandler(a.dashboard)

	api := r.Group(cfg.APIPrefix)
	requireAuth := middleware.JWT(a.auth)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register/otp", authHandler.RequestOTP)
	auth.POST("/register", authHandler.Register)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", requireAuth, authHandler.Logout)
	auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
	auth.GET("/me", requireAuth, authHandler.Me)
	auth.GET("/oauth/:provider", oauthHandler.AuthURL)
	auth.GET("/oauth/:provider/callback", oauthHandler.Callback)

	users := api.Group("/users", requireAuth)
	users.GET("", adminOnly, userHandler.List)
	users.POST("", adminOnly, userHandler.Create)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.SelfAccess), userHandler.Get)
	users.PUT("/:id", adminOnly, userHandler.Update)
	users.DELETE("/:id", adminOnly, userHandler.Delete)

	timetables := api.Group("/timetables", requireAuth)
	timetables.GET("/catalog", timetableHandler.Catalog)
	timetables.GET("", timetableHandler.List)
	timetables.GET("/:id", timetableHandler.Get)
	timetables.GET("/:id/pdf", middleware.Audit(a.audit, logr, models.AuditActionTimetableExport, "timetables"), timetableHandler.PDF)
	timetables.POST("/preview", adminOnly, timetableHandler.Preview)
	timetables.POST("", adminOnly, timetableHandler.Create)
	timetables.DELETE("/:id", adminOnly, timetableHandler.Delete)

	seatingHandler.RegisterRoutes(api.Group("/seating", requireAuth), adminOnly)
	api.GET("/files/:token", middleware.OptionalJWT(a.auth), middleware.Audit(a.audit, logr, models.AuditActionSeatChartDownload, "seat_charts"), seatingHandler.Download)

	tests := api.Group("/tests", requireAuth)
	tests.GET("/status", testHandler.Status)
	tests.POST("/start", testHandler.Start)
	tests.POST("/run", testHandler.Run)
	tests.POST("/submissions", testHandler.Submit)
	tests.POST("/reattempt", testHandler.Reattempt)
	tests.POST("/complete", testHandler.Complete)
	tests.POST("/disqualify", testHandler.Disqualify)

	api.GET("/submissions", requireAuth, staff, testHandler.ListSubmissions)
	api.GET("/questions", requireAuth, staff, testHandler.ListQuestions)
	api.POST("/questions", requireAuth, adminOnly, testHandler.CreateQuestion)

	admin := api.Group("/admin", requireAuth, adminOnly)
	admin.GET("/dashboard", dashboardHandler.Admin)
	admin.GET("/metrics", metricsHandler.Snapshot)

	return r
}
