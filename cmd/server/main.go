package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/cassidycr/accildatabase/internal/app"
	"github.com/cassidycr/accildatabase/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(service.Config.Database.MigrationsDir); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	sessionHandler := handlers.NewSessionHandler(service)

	http.HandleFunc("POST /api/v1/sessions", sessionHandler.HandleCreateSession)
	http.HandleFunc("GET /api/v1/sessions", sessionHandler.HandleListSessions)
	http.HandleFunc("POST /api/v1/sessions/{id}/confirm", sessionHandler.HandleConfirmSession)
	http.HandleFunc("PATCH /api/v1/sessions/{id}", sessionHandler.HandleEditSession)
	http.HandleFunc("POST /api/v1/sessions/{id}/cancel", sessionHandler.HandleCancelSession)
	http.HandleFunc("GET /api/v1/reports/dashboard", sessionHandler.HandleDashboard)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting instruction session server on %s", service.Config.Server.Port)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Instruction session server failed: %v", err)
	}
}
