package main

import (
	"fmt"
	"os"
	"time"

	"github.com/asocolnef/epiaki-backend/internal/handlers"
	"github.com/asocolnef/epiaki-backend/internal/middleware"
	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/server"
	"github.com/asocolnef/epiaki-backend/internal/services"
	"github.com/asocolnef/epiaki-backend/internal/survey"
	"github.com/asocolnef/epiaki-backend/internal/utils"
)

func main() {
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

	// Survey schema
	schemaVersion := utils.GetEnv("SURVEY_SCHEMA_VERSION", survey.DefaultVersion, log)
	sch, err := survey.Load(schemaVersion)
	if err != nil {
		log.Fatal("Could not load survey schema", "version", schemaVersion, "error", err)
	}
	log.Info("Survey schema loaded", "version", sch.Version, "fields", sch.Width())

	// Services. A missing credential group disables its feature with a
	// visible banner; only the logger is allowed to kill the process.
	log.Info("Setting up services from main...")

	store, err := services.NewSheetsStore(log, sch)
	if err != nil {
		log.Warn("Could not init SheetsStore, records will not persist", "error", err)
	}

	modelClient, err := services.NewGeminiClient(log, sch.Brief())
	if err != nil {
		log.Warn("Could not init GeminiClient, chat flow disabled", "error", err)
	}

	sessionIdleMin := utils.GetEnvAsInt("SESSION_IDLE_MINUTES", 120, log)
	sessions := services.NewSessionManager(log, time.Duration(sessionIdleMin)*time.Minute)

	var surveyService services.SurveyService
	if modelClient != nil {
		surveyService = services.NewSurveyService(log, sessions, modelClient, store, sch)
	}

	gate, err := services.NewGateService(log)
	if err != nil {
		log.Warn("Could not init GateService, dashboard disabled", "error", err)
	}

	var dashboard services.DashboardService
	if store != nil {
		ttlSec := utils.GetEnvAsInt("DASHBOARD_CACHE_TTL_SECONDS", 60, log)
		dashboard = services.NewDashboardService(log, store, sch, time.Duration(ttlSec)*time.Second)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	chatHandler := handlers.NewChatHandler(log, surveyService)
	dashboardHandler := handlers.NewDashboardHandler(log, gate, dashboard)
	gateMiddleware := middleware.NewGateMiddleware(log, gate)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ChatHandler:      chatHandler,
		DashboardHandler: dashboardHandler,
		GateMiddleware:   gateMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
