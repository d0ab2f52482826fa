package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/cassidycr/accildatabase/internal/app"
	"github.com/cassidycr/accildatabase/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var once = flag.Bool("once", false, "Run a single export and exit")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	if !service.Config.Export.Enabled {
		logger.Error.Fatalf("Export is not enabled in config")
	}

	exporter, err := export.NewCSVExporter(
		service.Store,
		service.Config.Export.Schedule,
		service.Config.Export.Dir,
		service.Config.Export.Classes,
	)
	if err != nil {
		logger.Error.Fatalf("Failed to initialize CSV exporter: %v", err)
	}

	if *once {
		if err := exporter.Export(); err != nil {
			logger.Error.Fatalf("Export failed: %v", err)
		}
		return
	}

	exporter.Start()
	defer exporter.Stop()

	logger.Info.Println("Exporter running, waiting for schedule")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Exporter shutting down")
}
