package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/matchpoint-backend/internal/handlers"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/middleware"
	"github.com/yungbote/matchpoint-backend/internal/utils"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	ProfileDataHandler  *handlers.ProfileDataHandler
	ProfileQuizHandler  *handlers.ProfileQuizHandler
	ClassifierHandler   *handlers.ClassifierHandler
	ControlPanelHandler *handlers.ControlPanelHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RequestLog          *middleware.RequestLog
	Gatherer            prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("matchpoint-backend"))
	router.Use(cfg.RequestLog.Handler())

	// Cors
	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS",
		"http://localhost:80,http://localhost:3000,http://localhost:5174", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))

	api := router.Group("/api")
	{
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)

		api.GET("/match/all-data", cfg.ProfileDataHandler.ListAll)
		api.GET("/pii/all-profiles", cfg.ProfileQuizHandler.ListAll)

		api.POST("/analyze-personality", cfg.ClassifierHandler.AnalyzePersonality)
		api.POST("/analyze-bio-safety", cfg.ClassifierHandler.AnalyzeBioSafety)
		api.POST("/enhance-bio", cfg.ClassifierHandler.EnhanceBio)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Matchmakers profile data
		protected.GET("/match/data", cfg.ProfileDataHandler.GetData)
		protected.POST("/match/data-write", cfg.ProfileDataHandler.WriteData)
		protected.POST("/match/setup", cfg.ProfileDataHandler.Setup)
		protected.POST("/match/add", cfg.ProfileDataHandler.AddField)
		protected.DELETE("/match/add", cfg.ProfileDataHandler.RemoveField)
		protected.POST("/match/save", cfg.ProfileDataHandler.SaveQuiz)

		// PII-training quiz
		protected.POST("/pii/profile", cfg.ProfileQuizHandler.Save)
		protected.GET("/pii/profile", cfg.ProfileQuizHandler.Get)
		protected.DELETE("/pii/profile", cfg.ProfileQuizHandler.Delete)
		protected.GET("/pii/safe-profile", cfg.ProfileQuizHandler.SafeProfile)

		// Control panel reads
		protected.GET("/control-panel/metrics", cfg.ControlPanelHandler.Metrics)
		protected.GET("/control-panel/error-logs", cfg.ControlPanelHandler.ErrorLogs)
		protected.POST("/control-panel/error-logs", cfg.ControlPanelHandler.PostErrorLog)
		protected.GET("/control-panel/fetch-logs", cfg.ControlPanelHandler.FetchLogs)
		protected.GET("/control-panel/change-logs", cfg.ControlPanelHandler.ChangeLogs)
		protected.GET("/control-panel/database-status", cfg.ControlPanelHandler.DatabaseStatus)
		protected.GET("/control-panel/summary", cfg.ControlPanelHandler.Summary)
	}

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/api/control-panel")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	{
		admin.POST("/pause", cfg.ControlPanelHandler.Pause)
		admin.POST("/resume", cfg.ControlPanelHandler.Resume)
		admin.POST("/pause-matchmakers", cfg.ControlPanelHandler.PauseMatchmakers)
		admin.POST("/resume-matchmakers", cfg.ControlPanelHandler.ResumeMatchmakers)
		admin.GET("/export", cfg.ControlPanelHandler.Export)
		admin.POST("/import", cfg.ControlPanelHandler.Import)
	}

	return router
}
