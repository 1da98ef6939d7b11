package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse.ai/civicpulse-api/internal/auth"
	"civicpulse.ai/civicpulse-api/internal/core"
	"civicpulse.ai/civicpulse-api/internal/store"
)

type testServer struct {
	handler    http.Handler
	stagingDir string
}

func newTestServer(t *testing.T, transcriber core.Transcriber, jwtSecret string) testServer {
	t.Helper()
	feedbackStore := store.NewFeedbackStore(store.NewFileStore(filepath.Join(t.TempDir(), "feedback.json")))
	stagingDir := t.TempDir()
	svc := core.NewIngestService(feedbackStore, core.NewDefaultClassifier(), core.AudioConfig{
		Transcriber: transcriber,
		StagingDir:  stagingDir,
		Timeout:     time.Second,
	})
	return testServer{
		handler:    NewRouter(NewAPIHandler(svc, jwtSecret, 1<<20), []string{"*"}),
		stagingDir: stagingDir,
	}
}

func (s testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t, nil, "")

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CivicPulse AI API is running", decode[map[string]string](t, rec)["message"])

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSubmitListAndStats(t *testing.T) {
	srv := newTestServer(t, nil, "")

	// Client-supplied sentiment, id and timestamp are ignored.
	body := `{"text": "Great service, thanks!", "category": "Parks", "sentiment": "Negative", "id": "99", "timestamp": "yesterday"}`
	rec := srv.do(t, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[store.Feedback](t, rec)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, store.Positive, created.Sentiment)
	assert.NotEqual(t, "yesterday", created.Timestamp)

	rec = srv.do(t, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"text": "Road is broken", "category": "Roads"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/feedback", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]store.Feedback](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, created, list[0])

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[core.Stats](t, rec)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, "Positive", stats.Sentiment)
	assert.Equal(t, "Parks", stats.TopIssue)
	assert.Equal(t, []core.IssueShare{{Name: "Parks", Value: 50}, {Name: "Roads", Value: 50}}, stats.TopIssuesList)
}

func TestListAndStatsEmpty(t *testing.T) {
	srv := newTestServer(t, nil, "")

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/feedback", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.JSONEq(t, `{"total": 0, "sentiment": "None", "top_issue": "None"}`, rec.Body.String())
}

func TestSubmitValidation(t *testing.T) {
	srv := newTestServer(t, nil, "")

	rec := srv.do(t, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"text": "hello"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "category is required", decode[map[string]string](t, rec)["error"])

	rec = srv.do(t, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadCSV(t *testing.T) {
	srv := newTestServer(t, nil, "")

	csv := "text,category\nGreat park,Parks\nBroken bench,Parks\njust one field\n"
	rec := srv.do(t, multipartRequest(t, "/upload", "feedback.csv", []byte(csv)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "Successfully uploaded 2 feedback items", resp["message"])
	assert.EqualValues(t, 2, resp["ingested"])
	assert.EqualValues(t, 1, resp["skipped"])
}

func TestUploadCSVRejects(t *testing.T) {
	srv := newTestServer(t, nil, "")

	rec := srv.do(t, multipartRequest(t, "/upload", "feedback.txt", []byte("text,category\na,b\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only CSV files are allowed", decode[map[string]string](t, rec)["error"])

	rec = srv.do(t, multipartRequest(t, "/upload", "feedback.csv", []byte("text,category\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CSV is empty", decode[map[string]string](t, rec)["error"])

	rec = srv.do(t, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	srv := newTestServer(t, nil, "")

	rec := srv.do(t, multipartRequest(t, "/upload", "big.csv", bytes.Repeat([]byte("a,b\n"), 1<<19)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadCSVRequiresTokenWhenSecretSet(t *testing.T) {
	srv := newTestServer(t, nil, "s3cret")
	csv := []byte("text,category\nGreat park,Parks\n")

	rec := srv.do(t, multipartRequest(t, "/upload", "feedback.csv", csv))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := multipartRequest(t, "/upload", "feedback.csv", csv)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, req).Code)

	token, err := auth.GenerateJWT("s3cret", "admin", time.Hour)
	require.NoError(t, err)
	req = multipartRequest(t, "/upload", "feedback.csv", csv)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, srv.do(t, req).Code)
}

func TestUploadAudio(t *testing.T) {
	srv := newTestServer(t, core.TranscriberFunc(func(ctx context.Context, path string) (string, error) {
		return "The playground is excellent", nil
	}), "")

	rec := srv.do(t, multipartRequest(t, "/upload-audio", "feedback.webm", []byte("webm bytes")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Message       string         `json:"message"`
		Transcription string         `json:"transcription"`
		Feedback      store.Feedback `json:"feedback"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Audio feedback transcribed and saved", resp.Message)
	assert.Equal(t, "The playground is excellent", resp.Transcription)
	assert.Equal(t, "Other", resp.Feedback.Category)
	assert.Equal(t, store.Positive, resp.Feedback.Sentiment)

	entries, err := os.ReadDir(srv.stagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadAudioNothingTranscribed(t *testing.T) {
	srv := newTestServer(t, core.TranscriberFunc(func(ctx context.Context, path string) (string, error) {
		return "   ", nil
	}), "")

	rec := srv.do(t, multipartRequest(t, "/upload-audio", "feedback.webm", []byte("silence")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Could not transcribe audio"}`, rec.Body.String())

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, "/feedback", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUploadAudioTranscriptionFails(t *testing.T) {
	srv := newTestServer(t, core.TranscriberFunc(func(ctx context.Context, path string) (string, error) {
		return "", errors.New("unsupported codec")
	}), "")

	rec := srv.do(t, multipartRequest(t, "/upload-audio", "feedback.webm", []byte("???")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Transcription failed: unsupported codec", decode[map[string]string](t, rec)["error"])

	entries, err := os.ReadDir(srv.stagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadAudioUnavailable(t *testing.T) {
	srv := newTestServer(t, nil, "")

	rec := srv.do(t, multipartRequest(t, "/upload-audio", "feedback.webm", []byte("audio")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil, "")

	req := httptest.NewRequest(http.MethodOptions, "/feedback", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := srv.do(t, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
