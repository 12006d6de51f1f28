package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio-schedule/internal/cache"
	"studio-schedule/internal/config"
	"studio-schedule/internal/db"
	"studio-schedule/internal/handlers"
	"studio-schedule/internal/providers"
	"studio-schedule/internal/schedule"
	"studio-schedule/internal/store/postgres"
	"studio-schedule/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("Invalid SCHEDULE_TIMEZONE %q: %v", cfg.Timezone, err)
		}
		util.SetLocation(loc)
	}

	if err := db.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	c := cache.New(cfg.RedisAddr, cfg.RedisDB, cfg.ScheduleCacheTTL)
	defer c.Close()

	identity := providers.NewHTTPIdentity(cfg.AuthServiceURL, cfg.InternalAPIKey, cfg.ProviderTimeout)
	studio := providers.NewHTTPStudio(cfg.AdminServiceURL, cfg.InternalAPIKey, cfg.ProviderTimeout)

	svc := schedule.NewService(postgres.New(db.DB), cfg.HorizonDays)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go svc.RunPeriodic(ctx, cfg.GenerateInterval)

	mux := http.NewServeMux()
	h := handlers.New(cfg, svc, c, identity, studio)
	h.Register(mux, cfg.JWTSecret, cfg.InternalAPIKeyHash)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Schedule service listening on port %s (horizon %d days)", cfg.Port, cfg.HorizonDays)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: graceful shutdown failed: %v", err)
	}
}
