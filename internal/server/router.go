package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/asocolnef/epiaki-backend/internal/handlers"
	"github.com/asocolnef/epiaki-backend/internal/middleware"
)

type RouterConfig struct {
	ChatHandler      *handlers.ChatHandler
	DashboardHandler *handlers.DashboardHandler
	GateMiddleware   *middleware.GateMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Conversational entry page.
		api.POST("/chat/session", cfg.ChatHandler.CreateSession)
		api.POST("/chat/message", cfg.ChatHandler.SendMessage)
		api.GET("/chat/history", cfg.ChatHandler.History)

		// Dashboard: unlock is public, everything else sits behind the gate.
		api.POST("/dashboard/unlock", cfg.DashboardHandler.Unlock)
		gated := api.Group("/dashboard")
		gated.Use(cfg.GateMiddleware.RequireGate())
		gated.GET("/summary", cfg.DashboardHandler.Summary)
		gated.GET("/export.csv", cfg.DashboardHandler.ExportCSV)
	}

	return router
}
