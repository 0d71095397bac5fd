package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yungbote/matchpoint-backend/internal/clients/groq"
	"github.com/yungbote/matchpoint-backend/internal/db"
	"github.com/yungbote/matchpoint-backend/internal/filestore"
	"github.com/yungbote/matchpoint-backend/internal/handlers"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/middleware"
	"github.com/yungbote/matchpoint-backend/internal/observability"
	"github.com/yungbote/matchpoint-backend/internal/repos"
	"github.com/yungbote/matchpoint-backend/internal/server"
	"github.com/yungbote/matchpoint-backend/internal/services"
	"github.com/yungbote/matchpoint-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	ctx := context.Background()
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "matchpoint-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() { _ = otelShutdown(ctx) }()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Metrics
	registry := prometheus.NewRegistry()
	recorder := metrics.NewCollector(registry)

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	sectionRepo := repos.NewProfileSectionRepo(thePG, log)
	quizRepo := repos.NewProfileQuizRepo(thePG, log)
	gateRepo := repos.NewGateStatusRepo(thePG, log)
	auditRepo := repos.NewAuditRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(userRepo, log)
	gateService := services.NewGateService(gateRepo, recorder, log)
	auditService := services.NewAuditService(auditRepo, userRepo, sectionRepo, quizRepo, log)
	quizService := services.NewProfileQuizService(quizRepo, log)

	var dataService services.ProfileDataService
	switch backend := utils.GetEnv("PROFILE_STORE_BACKEND", "db", log); backend {
	case "file":
		dataDir := utils.GetEnv("PROFILE_STORE_DIR", "./data", log)
		store := filestore.NewStore(dataDir, log)
		dataService = services.NewFileProfileDataService(store, gateService, recorder, log)
		log.Info("Using legacy file-backed profile store", "path", store.Path())
	default:
		dataService = services.NewProfileDataService(thePG, sectionRepo, auditRepo, gateService, recorder, log)
	}

	groqClient, err := groq.NewClient(log)
	if err != nil {
		log.Warn("Groq client unavailable, classifier will use fallbacks", "error", err)
		groqClient = nil
	}
	classifierService := services.NewClassifierService(groqClient, recorder, log)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(log, authService)
	dataHandler := handlers.NewProfileDataHandler(log, dataService)
	quizHandler := handlers.NewProfileQuizHandler(log, quizService)
	classifierHandler := handlers.NewClassifierHandler(log, classifierService)
	controlPanelHandler := handlers.NewControlPanelHandler(log, auditService, gateService, dataService, quizService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, log)
	requestLog := middleware.NewRequestLog(auditService, recorder, log)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		ProfileDataHandler:  dataHandler,
		ProfileQuizHandler:  quizHandler,
		ClassifierHandler:   classifierHandler,
		ControlPanelHandler: controlPanelHandler,
		AuthMiddleware:      authMiddleware,
		RequestLog:          requestLog,
		Gatherer:            registry,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
