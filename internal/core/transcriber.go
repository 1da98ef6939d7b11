package core

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Transcriber turns a staged audio file into text. One instance is created at
// startup and shared by every request; it is never reloaded per call.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// TranscriberFunc adapts a plain function to Transcriber.
type TranscriberFunc func(ctx context.Context, path string) (string, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

const (
	defaultTranscriptionModelName = "gemini-1.5-flash-latest"

	transcriptionSystemInstruction = "You transcribe short voice notes left by residents about their city. " +
		"Return only the spoken words, verbatim, in the language they were spoken. " +
		"Do not add commentary, labels or quotes. If nothing intelligible is said, return nothing."

	transcriptionPrompt = "Transcribe this recording."
)

// GeminiTranscriber sends audio to a Gemini model and returns the transcript.
type GeminiTranscriber struct {
	client    *genai.Client
	modelName string
}

func NewGeminiTranscriber(ctx context.Context, apiKey, modelName string) (*GeminiTranscriber, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = defaultTranscriptionModelName
	}

	return &GeminiTranscriber{
		client:    client,
		modelName: modelName,
	}, nil
}

func (s *GeminiTranscriber) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

func (s *GeminiTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read staged audio: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(transcriptionSystemInstruction)},
	}
	temp := float32(0)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: &temp,
	}

	audio := genai.Blob{MIMEType: audioMIMEType(path, data), Data: data}
	resp, err := model.GenerateContent(ctx, audio, genai.Text(transcriptionPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini transcription request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var transcript strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			transcript.WriteString(string(txt))
		} else {
			log.Printf("Gemini transcription part was not text: %T", part)
		}
	}
	return transcript.String(), nil
}

var audioMIMETypes = map[string]string{
	".aac":  "audio/aac",
	".aiff": "audio/aiff",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mp3",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
	".webm": "audio/webm",
}

// audioMIMEType picks the type from the extension, then from sniffing, and falls
// back to webm, which is what browser recorders produce.
func audioMIMEType(path string, data []byte) string {
	if mt, ok := audioMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "audio/") {
		return sniffed
	}
	return "audio/webm"
}
