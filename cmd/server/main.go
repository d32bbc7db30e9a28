package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/netinternals/internal/infrastructure/config"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/server"
)

func main() {
	// Parse flags
	configPath := flag.String("config", os.Getenv("NETINTERNALS_CONFIG"), "Config file (.yaml, .yml or .toml)")
	port := flag.String("port", "", "Server port (overrides config)")
	hostURL := flag.String("host", "", "Host websocket URL (overrides config)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *hostURL != "" {
		cfg.Host.URL = *hostURL
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Server error: %v", runErr)
	}
}
