package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"civicpulse.ai/civicpulse-api/internal/config"
	"civicpulse.ai/civicpulse-api/internal/core"
	"civicpulse.ai/civicpulse-api/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "civicpulse",
	Short: "CivicPulse feedback API",
	Long:  `Collects civic feedback, classifies its sentiment and serves dashboard statistics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadConfig()
		if err := config.AppConfig.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if config.AppConfig.Debug() {
			log.Println("Service starting in DEBUG mode")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, ingestCmd, statsCmd, issueTokenCmd)
}

// app holds the long-lived components shared by every command.
type app struct {
	feedbackStore *store.FeedbackStore
	transcriber   *core.GeminiTranscriber
	ingestService *core.IngestService
}

// newApp wires the store, the optional transcriber and the ingest service from
// config.AppConfig. withAudio=false skips creating the transcription client.
func newApp(ctx context.Context, withAudio bool) (*app, error) {
	cfg := config.AppConfig

	backend, err := store.Open(store.Options{
		Backend:     cfg.StoreBackend,
		DataFile:    cfg.DataFile,
		DatabaseURL: cfg.DatabaseURL,
		MongoURI:    cfg.MongoURI,
		MongoDB:     cfg.MongoDB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	a := &app{feedbackStore: store.NewFeedbackStore(backend)}

	audio := core.AudioConfig{StagingDir: cfg.StagingDir, Timeout: cfg.TranscribeTimeout}
	if withAudio {
		if cfg.GeminiAPIKey == "" {
			log.Println("GEMINI_API_KEY not set, audio uploads are disabled")
		} else {
			t, err := core.NewGeminiTranscriber(ctx, cfg.GeminiAPIKey, cfg.TranscriptionModel)
			if err != nil {
				a.close()
				return nil, err
			}
			a.transcriber = t
			audio.Transcriber = t
		}
	}

	a.ingestService = core.NewIngestService(a.feedbackStore, core.NewDefaultClassifier(), audio)
	return a, nil
}

func (a *app) close() {
	if a.transcriber != nil {
		a.transcriber.Close()
	}
	if err := a.feedbackStore.Close(); err != nil {
		log.Printf("Error closing store: %v", err)
	}
}
