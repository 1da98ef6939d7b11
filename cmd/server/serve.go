package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"civicpulse.ai/civicpulse-api/internal/api"
	"civicpulse.ai/civicpulse-api/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := config.AppConfig
	apiHandler := api.NewAPIHandler(a.ingestService, cfg.JWTSecret, cfg.MaxUploadBytes)
	router := api.NewRouter(apiHandler, cfg.CORSAllowedOrigins)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.TranscribeTimeout + 30*time.Second, // audio uploads wait on transcription
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s (store: %s). Press Ctrl+C to quit.", serverAddr, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-quit:
	}
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exiting gracefully")
	return nil
}
