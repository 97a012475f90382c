package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"podium/agent/internal/api"
	"podium/agent/internal/config"
	"podium/agent/internal/deck"
	"podium/agent/internal/health"
	"podium/agent/internal/history"
	"podium/agent/internal/llm"
	"podium/agent/internal/status"
	"podium/agent/internal/store"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	st := store.New()
	d := deck.New()
	client := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.SlideModel)

	hist, err := history.Open(cfg.History.DBPath, cfg.History.MaxRecords)
	if err != nil {
		log.Printf("history disabled: %v", err)
		hist = nil
	} else {
		defer hist.Close()
	}

	hub := status.NewHub(st)
	if cfg.Status.Secret != "" {
		hub.RequireToken(cfg.Status.Secret)
	}
	h := api.NewHandlers(cfg, d, client, hist, st, hub)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		hs := health.CheckAll(ctx, cfg, hist)
		cancel()
		log.Print(hs.String())
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(api.NewRouter(h, hub)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
