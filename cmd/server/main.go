package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"volley/auth"
	"volley/config"
	"volley/logger"
	"volley/network"
	"volley/room"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var verifier *auth.Verifier
	if cfg.JWTSecret != "" {
		verifier = auth.New(cfg.JWTSecret)
	}

	manager := room.NewManager(log)
	server := network.NewServer(manager, log, verifier)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server crashed")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	manager.Shutdown()
	log.Info("bye")
}
