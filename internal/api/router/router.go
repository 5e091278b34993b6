package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"titulacion/config"
	"titulacion/internal/api/handler"
	"titulacion/internal/api/middleware"
	"titulacion/internal/model"
)

// Security optional Redis-backed collaborators; nil fields disable the feature
type Security struct {
	Tokens      middleware.TokenParser
	Blacklist   middleware.Blacklist
	RateLimiter middleware.RateLimiter
}

// Setup builds the gin engine
func Setup(cfg *config.Config, h *handler.Handler, sec Security, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	r.MaxMultipartMemory = 8 << 20

	r.GET("/health", h.Health.Check)

	loginLimit := middleware.RateLimit(sec.RateLimiter, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// public
		auth := v1.Group("/auth")
		{
			auth.POST("/staff/login", loginLimit, h.Auth.StaffLogin)
			auth.POST("/graduate/login", loginLimit, h.Auth.GraduateLogin)
			auth.POST("/register", loginLimit, h.Registration.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(sec.Tokens, sec.Blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// graduate portal
			graduate := authorized.Group("/graduate", middleware.RoleAuth(model.RoleGraduate))
			{
				graduate.GET("", h.Graduate.Dashboard)
				graduate.POST("/documents", h.Graduate.Upload)
				graduate.GET("/profile", h.Graduate.Profile)
				graduate.POST("/generate", h.Graduate.Generate)
			}

			// school services
			staff := authorized.Group("", middleware.RoleAuth(model.RoleStaff))
			{
				review := staff.Group("/review")
				{
					review.GET("", h.Review.Board)
					review.POST("", h.Review.Submit)
					review.POST("/batch-advance", h.Review.BatchAdvance)
					review.GET("/export", h.Review.Export)
					review.GET("/documents/:id/file", h.Review.DocumentFile)
				}

				graduates := staff.Group("/graduates")
				{
					graduates.GET("", h.Catalog.ListGraduates)
					graduates.POST("/import", h.Import.Import)
					graduates.PUT("/:control", h.Catalog.UpdateGraduate)
					graduates.POST("/:control/advance", h.Catalog.AdvanceGraduate)
					graduates.POST("/:control/retreat", h.Catalog.RetreatGraduate)
				}

				staff.GET("/stages", h.Catalog.ListStages)

				staff.GET("/plan-groups", h.Catalog.ListPlanGroups)
				staff.POST("/plan-groups", h.Catalog.CreatePlanGroup)
				staff.POST("/plan-groups/:id/plans", h.Catalog.CreatePlan)

				staff.GET("/titling-options", h.Catalog.ListTitlingOptions)
				staff.POST("/titling-options", h.Catalog.CreateTitlingOption)
			}
		}
	}

	return r
}
