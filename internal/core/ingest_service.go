package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"civicpulse.ai/civicpulse-api/internal/config"
	"civicpulse.ai/civicpulse-api/internal/store"
	"civicpulse.ai/civicpulse-api/internal/utils"
)

// DefaultCategory is used for spoken feedback, which carries no category.
const DefaultCategory = "Other"

const stagedAudioPrefix = "civicpulse-audio-"

type AudioConfig struct {
	Transcriber Transcriber // nil disables audio ingestion
	StagingDir  string
	Timeout     time.Duration
}

// IngestService turns external input into Feedback records. Every record goes
// through the classifier; a sentiment supplied by the caller is never kept.
type IngestService struct {
	feedbackStore *store.FeedbackStore
	classifier    Classifier
	audio         AudioConfig
}

func NewIngestService(feedbackStore *store.FeedbackStore, classifier Classifier, audio AudioConfig) *IngestService {
	if audio.StagingDir == "" {
		audio.StagingDir = os.TempDir()
	}
	return &IngestService{
		feedbackStore: feedbackStore,
		classifier:    classifier,
		audio:         audio,
	}
}

type SubmitRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type BulkResult struct {
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
}

type AudioResult struct {
	Transcript string          `json:"transcription"`
	Feedback   *store.Feedback `json:"feedback,omitempty"` // nil when nothing was transcribed
}

func (s *IngestService) Submit(ctx context.Context, req SubmitRequest) (store.Feedback, error) {
	if strings.TrimSpace(req.Text) == "" {
		return store.Feedback{}, &ValidationError{Field: "text"}
	}
	if strings.TrimSpace(req.Category) == "" {
		return store.Feedback{}, &ValidationError{Field: "category"}
	}
	return s.feedbackStore.Append(ctx, s.newFeedback(req.Text, req.Category))
}

func (s *IngestService) List(ctx context.Context) ([]store.Feedback, error) {
	return s.feedbackStore.Load(ctx)
}

func (s *IngestService) Stats(ctx context.Context) (Stats, error) {
	records, err := s.feedbackStore.Load(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Aggregate(records), nil
}

// BulkUpload ingests CSV content. The first line is a header. Each later line is
// split on commas; field 0 is the text and field 1 the category, further fields
// are ignored. Lines with fewer than two fields, or an empty text or category,
// are skipped. All rows are persisted with one write.
func (s *IngestService) BulkUpload(ctx context.Context, content []byte) (BulkResult, error) {
	if !utf8.Valid(content) {
		return BulkResult{}, &FormatError{Reason: "CSV is not valid UTF-8"}
	}
	lines := utils.SplitLines(string(content))
	if len(lines) < 2 {
		return BulkResult{}, &FormatError{Reason: "CSV is empty"}
	}

	var result BulkResult
	records := make([]store.Feedback, 0, len(lines)-1)
	for i, line := range lines[1:] { // skip header
		fields := utils.SplitFields(line)
		if len(fields) < 2 {
			config.Debugf("Skipping CSV line %d: expected at least 2 fields, got %d", i+2, len(fields))
			result.Skipped++
			continue
		}
		text := strings.TrimSpace(fields[0])
		category := strings.TrimSpace(fields[1])
		if text == "" || category == "" {
			config.Debugf("Skipping CSV line %d: empty text or category", i+2)
			result.Skipped++
			continue
		}
		records = append(records, s.newFeedback(text, category))
	}

	if len(records) > 0 {
		stored, err := s.feedbackStore.AppendMany(ctx, records)
		if err != nil {
			return BulkResult{}, err
		}
		result.Ingested = len(stored)
	}

	log.Printf("Bulk upload ingested %d rows, skipped %d", result.Ingested, result.Skipped)
	return result, nil
}

// AudioUpload stages the audio, transcribes it and ingests the transcript under
// DefaultCategory. The staged file is removed on every path. An empty or blank
// transcript ingests nothing and is not an error.
func (s *IngestService) AudioUpload(ctx context.Context, filename string, audio []byte) (AudioResult, error) {
	if s.audio.Transcriber == nil {
		return AudioResult{}, ErrTranscriptionUnavailable
	}

	path, err := s.stageAudio(filename, audio)
	if err != nil {
		return AudioResult{}, fmt.Errorf("failed to stage audio: %w", err)
	}
	defer removeStaged(path)

	tctx := ctx
	if s.audio.Timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, s.audio.Timeout)
		defer cancel()
	}

	started := time.Now()
	text, err := s.audio.Transcriber.Transcribe(tctx, path)
	if err != nil {
		log.Printf("Transcription of %s failed after %s: %v", filepath.Base(path), time.Since(started), err)
		return AudioResult{}, &TranscriptionError{Err: err}
	}
	config.Debugf("Transcribed %s in %s", filepath.Base(path), time.Since(started))

	text = strings.TrimSpace(text)
	if text == "" {
		return AudioResult{}, nil
	}

	feedback, err := s.feedbackStore.Append(ctx, s.newFeedback(text, DefaultCategory))
	if err != nil {
		return AudioResult{}, err
	}
	return AudioResult{Transcript: text, Feedback: &feedback}, nil
}

func (s *IngestService) newFeedback(text, category string) store.Feedback {
	return store.Feedback{
		Text:      text,
		Category:  category,
		Sentiment: s.classifier.Classify(text),
	}
}

// stageAudio writes audio to a uniquely named file in the staging directory.
// Only the extension of the client-supplied name is kept.
func (s *IngestService) stageAudio(filename string, audio []byte) (string, error) {
	path := filepath.Join(s.audio.StagingDir, stagedAudioPrefix+uuid.NewString()+safeExt(filename))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		removeStaged(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		removeStaged(path)
		return "", err
	}
	return path, nil
}

func removeStaged(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to remove staged audio %s: %v", path, err)
	}
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
