package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealerwatch/internal/alerting"
	"dealerwatch/internal/api"
	"dealerwatch/internal/config"
	"dealerwatch/internal/fetch"
	"dealerwatch/internal/logging"
	"dealerwatch/internal/monitor"
	"dealerwatch/internal/notification"
	"dealerwatch/internal/store"
	"dealerwatch/internal/websocket"
)

func main() {
	cfg := config.Load()

	logging.Init(cfg.LogDir, cfg.Environment)
	log := logging.L()
	defer log.Sync()

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalw("failed to open data store", "data_dir", cfg.DataDir, "error", err)
	}

	hub := websocket.NewHub(cfg.JWTSecret, cfg.CORSOrigins)
	go hub.Run()

	chain := fetch.NewChain(
		fetch.NewDirect(cfg.Monitoring.FetchTimeout),
		fetch.NewScrapeAPI(cfg.ScrapeAPI.APIKey, cfg.ScrapeAPI.BaseURL),
		fetch.NewBrowser(cfg.Monitoring.BrowserEnabled, cfg.Monitoring.FetchTimeout),
	)

	dispatcher := notification.NewDispatcher(cfg)
	dedup := alerting.NewDeduplicator(st, dispatcher)
	engine := monitor.NewEngine(chain, st, dedup, hub)
	governor := monitor.NewGovernor(cfg.Monitoring.MaxConcurrent)

	scheduler := monitor.NewScheduler(st, engine, governor, cfg.Monitoring.ScanInterval)
	if err := scheduler.Start(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}
	defer scheduler.Stop()

	router := api.NewRouter(cfg, st, hub, scheduler, governor)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalw("forced shutdown", "error", err)
	}

	log.Infow("server exited")
}
