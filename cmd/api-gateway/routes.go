package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-api/internal/middleware"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/pkg/config"
	"github.com/noah-isme/scholarship-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/scholarship-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/scholarship-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, app *application) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", app.metricsHandler.Health)
	r.GET("/ready", app.metricsHandler.Ready)
	r.GET("/metrics", app.metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(app.auth))

	staff := middleware.RequireStaff()
	admin := middleware.RequireRoles(models.RoleAdmin)
	verifiers := middleware.RequireRoles(models.RoleAdmin, models.RoleVerifier)
	evaluators := middleware.RequireRoles(models.RoleAdmin, models.RoleEvaluator)
	approvers := middleware.RequireRoles(models.RoleAdmin, models.RoleApprover)
	students := middleware.RequireRoles(models.RoleStudent)

	api.GET("/metrics/workflow", staff, app.metricsHandler.Snapshot)

	scholarships := api.Group("/scholarships")
	{
		scholarships.GET("", app.scholarshipHandler.List)
		scholarships.GET("/:id", app.scholarshipHandler.Get)
		scholarships.POST("", admin, app.scholarshipHandler.Create)
		scholarships.PUT("/:id", admin, app.scholarshipHandler.Update)
		scholarships.GET("/:id/slots", staff, app.scholarshipHandler.Slots)
		scholarships.GET("/:id/awardees", staff,
			middleware.Audit(app.audit, logr, models.AuditActionAwardeeExport, "scholarship"),
			app.scholarshipHandler.Awardees)
	}

	api.POST("/eligibility/preview", app.applicationHandler.PreviewEligibility)

	applications := api.Group("/applications")
	{
		applications.POST("", students, app.applicationHandler.Create)
		applications.GET("", app.applicationHandler.List)
		applications.GET("/:id", app.applicationHandler.Get)
		applications.GET("/:id/audit", staff, app.auditHandler.ApplicationHistory)

		applications.POST("/:id/documents", students, app.applicationHandler.UploadDocument)
		applications.POST("/:id/submit", students, app.applicationHandler.Submit)
		applications.POST("/:id/resubmit", students, app.applicationHandler.Resubmit)

		applications.POST("/:id/verification/begin", verifiers, app.applicationHandler.BeginVerification)
		applications.POST("/:id/documents/:type/verify", verifiers, app.applicationHandler.VerifyDocument)
		applications.POST("/:id/verify", verifiers, app.applicationHandler.MarkVerified)
		applications.POST("/:id/incomplete", verifiers, app.applicationHandler.MarkIncomplete)

		applications.POST("/:id/evaluate", evaluators, app.applicationHandler.Evaluate)
		applications.POST("/:id/approve", approvers, app.applicationHandler.Approve)
		applications.POST("/:id/reject", approvers, app.applicationHandler.Reject)
		applications.POST("/:id/revoke", approvers, app.applicationHandler.Revoke)
		applications.POST("/:id/end", approvers, app.applicationHandler.EndAward)

		applications.GET("/:id/stipends", app.applicationHandler.StipendHistory)
		applications.POST("/:id/stipends", approvers, app.applicationHandler.RecordStipend)

		applications.GET("/:id/interview", app.interviewHandler.Get)
		applications.POST("/:id/interview", evaluators, app.interviewHandler.Schedule)
		applications.POST("/:id/interview/reschedule", students, app.interviewHandler.RequestReschedule)
		applications.POST("/:id/interview/complete", evaluators, app.interviewHandler.Complete)
		applications.POST("/:id/interview/cancel", evaluators, app.interviewHandler.Cancel)

		applications.GET("/:id/renewals", app.renewalHandler.List)
		applications.POST("/:id/renewals", students, app.renewalHandler.Create)
		applications.GET("/:id/renewals/eligibility", app.renewalHandler.Eligibility)
		applications.GET("/:id/renewals/deadlines", app.renewalHandler.Deadlines)
	}

	renewals := api.Group("/renewals")
	{
		renewals.GET("/:id", app.renewalHandler.Get)
		renewals.POST("/:id/documents", students, app.renewalHandler.UploadDocument)
		renewals.POST("/:id/review", approvers, app.renewalHandler.BeginReview)
		renewals.POST("/:id/approve", approvers, app.renewalHandler.Approve)
		renewals.POST("/:id/reject", approvers, app.renewalHandler.Reject)
	}

	return r
}
