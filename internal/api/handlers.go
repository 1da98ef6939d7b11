package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"civicpulse.ai/civicpulse-api/internal/auth"
	"civicpulse.ai/civicpulse-api/internal/core"
	"civicpulse.ai/civicpulse-api/internal/store"
)

type APIHandler struct {
	ingestService  *core.IngestService
	jwtSecret      string
	maxUploadBytes int64
}

func NewAPIHandler(is *core.IngestService, jwtSecret string, maxUploadBytes int64) *APIHandler {
	return &APIHandler{
		ingestService:  is,
		jwtSecret:      jwtSecret,
		maxUploadBytes: maxUploadBytes,
	}
}

// AdminAuthMiddleware requires a bearer JWT signed with the configured secret.
// Without a secret the admin routes are open, as they always were.
func (h *APIHandler) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.jwtSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		subject, err := auth.ValidateJWT(h.jwtSecret, tokenString)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}

		log.Printf("Admin request %s %s by %s", r.Method, r.URL.Path, subject)
		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "CivicPulse AI API is running"})
}

func (h *APIHandler) SubmitFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req core.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	feedback, err := h.ingestService.Submit(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "submit feedback")
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (h *APIHandler) ListFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.ingestService.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list feedback")
		return
	}
	if records == nil {
		records = []store.Feedback{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ingestService.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) UploadCSVHandler(w http.ResponseWriter, r *http.Request) {
	filename, content, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only CSV files are allowed"})
		return
	}

	result, err := h.ingestService.BulkUpload(r.Context(), content)
	if err != nil {
		h.writeServiceError(w, err, "upload CSV")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  fmt.Sprintf("Successfully uploaded %d feedback items", result.Ingested),
		"ingested": result.Ingested,
		"skipped":  result.Skipped,
	})
}

func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	filename, audio, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.ingestService.AudioUpload(r.Context(), filename, audio)
	if err != nil {
		h.writeServiceError(w, err, "process audio")
		return
	}
	if result.Feedback == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Could not transcribe audio"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Audio feedback transcribed and saved",
		"transcription": result.Transcript,
		"feedback":      result.Feedback,
	})
}

// readUpload reads the multipart "file" field, bounded by maxUploadBytes.
func (h *APIHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Upload is too large"})
			return "", nil, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "A file field named 'file' is required"})
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to read upload"})
		return "", nil, false
	}
	return header.Filename, data, true
}

func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, action string) {
	var (
		validationErr    *core.ValidationError
		formatErr        *core.FormatError
		transcriptionErr *core.TranscriptionError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Error()})
	case errors.As(err, &formatErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatErr.Error()})
	case errors.Is(err, core.ErrTranscriptionUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.As(err, &transcriptionErr):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Transcription failed: " + transcriptionErr.Err.Error()})
	default:
		log.Printf("Failed to %s: %v", action, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to " + action})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
