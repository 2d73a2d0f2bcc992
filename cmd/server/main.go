package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docview/internal/api"
	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/geom"
	"github.com/dgallion1/docview/internal/session"
	"github.com/dgallion1/docview/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	st := store.NewClient(cfg.StoreURL, cfg.StoreAPIKey)

	// Initialize session manager.
	flow := geom.DefaultFlowConfig
	flow.LineChars = cfg.LayoutLineChars
	flow.ColumnRows = cfg.LayoutColumnRows
	flow.ColumnGap = cfg.LayoutColumnGap
	sessions := session.NewManager(session.Config{
		TTL:             cfg.SessionTTL,
		Flow:            flow,
		SortIndexDigits: cfg.SortIndexDigits(),
	}, st, log)
	sessions.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(sessions, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		sessions.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		st.Close()
	}()

	log.Info("starting docview", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
