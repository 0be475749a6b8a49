package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"cinefuse/config"
	"cinefuse/handlers"
	"cinefuse/services/metadata"
	"cinefuse/utils"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogFile)

	svc := metadata.NewService(cfg)

	router := utils.NewRouter()
	limiter := utils.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitRPS*2)
	router.Use(utils.RateLimitMiddleware(limiter))
	handlers.NewMetadataHandler(svc).RegisterRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Warm the source registry in the background so the first real request
	// does not pay for the probe round. Requests arriving earlier share the
	// same in-flight initialization.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		svc.Warm(ctx)
		log.Printf("[main] %s", svc.InitializationStatus())
	}()

	go func() {
		log.Printf("[main] listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
}

// setupLogging routes the default logger to a rotating file when configured,
// always mirroring to stderr.
func setupLogging(logFile string) {
	if logFile == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    20, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}
