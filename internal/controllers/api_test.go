package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rahul4469/competitor-monitor/internal/models"
	"github.com/rahul4469/competitor-monitor/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParser struct {
	content *models.ParsedContent
	err     error
	got     string
}

func (p *fakeParser) Parse(_ context.Context, rawURL string) (*models.ParsedContent, error) {
	p.got = rawURL
	return p.content, p.err
}

type failingAnalyzer struct{}

func (failingAnalyzer) AnalyzeText(context.Context, string) (*models.TextAnalysis, error) {
	return nil, errors.New("model unavailable")
}

func (failingAnalyzer) AnalyzeImage(context.Context, []byte, string) (*models.ImageAnalysis, error) {
	return nil, errors.New("model unavailable")
}

func newAPI(analyzer services.Analyzer, parser PageParser, history models.HistoryStore) http.Handler {
	c := NewAPIController(analyzer, parser, history, slog.New(slog.NewTextHandler(io.Discard, nil)), 1<<20)
	r := chi.NewRouter()
	c.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func uploadImage(t *testing.T, h http.Handler, filename, contentType string) map[string]any {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	part.Write([]byte("image-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze_image", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAnalyzeText_Endpoint(t *testing.T) {
	history := models.NewMemoryHistory(10)
	h := newAPI(services.SampleAnalyzer{}, &fakeParser{}, history)

	_, out := doJSON(t, h, http.MethodPost, "/analyze_text", `{"text":"короткий"}`)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Текст слишком короткий", out["error"])
	assert.NotContains(t, out, "analysis")

	long := strings.Repeat("я", 60)
	rec, out := doJSON(t, h, http.MethodPost, "/analyze_text", `{"text":"`+long+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	analysis := out["analysis"].(map[string]any)
	assert.Len(t, analysis["strengths"], 3)

	items, err := history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.RequestText, items[0].RequestType)
	assert.Equal(t, strings.Repeat("я", models.SummaryLength), items[0].RequestSummary)
}

func TestAnalyzeText_BadJSON(t *testing.T) {
	h := newAPI(services.SampleAnalyzer{}, &fakeParser{}, models.NewMemoryHistory(10))

	rec, out := doJSON(t, h, http.MethodPost, "/analyze_text", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["success"])
}

func TestAnalyzeText_AnalyzerFailure(t *testing.T) {
	history := models.NewMemoryHistory(10)
	h := newAPI(failingAnalyzer{}, &fakeParser{}, history)

	_, out := doJSON(t, h, http.MethodPost, "/analyze_text", `{"text":"достаточно длинный текст"}`)
	assert.Equal(t, false, out["success"])
	assert.NotEmpty(t, out["error"])

	items, _ := history.List(context.Background())
	assert.Empty(t, items)
}

func TestAnalyzeImage_Endpoint(t *testing.T) {
	history := models.NewMemoryHistory(10)
	h := newAPI(services.SampleAnalyzer{}, &fakeParser{}, history)

	out := uploadImage(t, h, "doc.pdf", "application/pdf")
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Недопустимый формат изображения", out["error"])

	out = uploadImage(t, h, "banner.webp", "image/webp")
	assert.Equal(t, true, out["success"])
	assert.EqualValues(t, 8, out["analysis"].(map[string]any)["visual_style_score"])

	items, _ := history.List(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "banner.webp", items[0].RequestSummary)
	assert.Equal(t, models.RequestImage, items[0].RequestType)
}

func TestParseDemo_Endpoint(t *testing.T) {
	t.Run("parser error", func(t *testing.T) {
		parser := &fakeParser{err: models.FetchError{URL: "https://down.example", Status: 503}}
		h := newAPI(services.SampleAnalyzer{}, parser, models.NewMemoryHistory(10))

		_, out := doJSON(t, h, http.MethodPost, "/parse_demo", `{"url":"down.example"}`)
		assert.Equal(t, false, out["success"])
		assert.Equal(t, "failed to fetch https://down.example: status 503", out["error"])
		assert.Equal(t, "down.example", parser.got)
	})

	t.Run("success", func(t *testing.T) {
		parser := &fakeParser{content: &models.ParsedContent{Title: "Ромашка", H1: "Цены", FirstParagraph: "Абзац"}}
		history := models.NewMemoryHistory(10)
		h := newAPI(services.SampleAnalyzer{}, parser, history)

		_, out := doJSON(t, h, http.MethodPost, "/parse_demo", `{"url":"https://romashka.example"}`)
		assert.Equal(t, true, out["success"])
		assert.Equal(t, "Ромашка", out["parsed"].(map[string]any)["title"])
		assert.Contains(t, out["analysis"], "summary")

		items, _ := history.List(context.Background())
		require.Len(t, items, 1)
		assert.Equal(t, "https://romashka.example", items[0].RequestSummary)
	})
}

func TestHistoryEndpoints(t *testing.T) {
	history := models.NewMemoryHistory(3)
	h := newAPI(services.SampleAnalyzer{}, &fakeParser{}, history)

	for i := 0; i < 5; i++ {
		doJSON(t, h, http.MethodPost, "/analyze_text", fmt.Sprintf(`{"text":"запрос номер %d"}`, i))
	}

	_, out := doJSON(t, h, http.MethodGet, "/history", "")
	assert.EqualValues(t, 3, out["total"])
	items := out["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "запрос номер 2", items[0].(map[string]any)["request_summary"])
	assert.Equal(t, "запрос номер 4", items[2].(map[string]any)["request_summary"])

	for i := 0; i < 2; i++ {
		rec, out := doJSON(t, h, http.MethodDelete, "/history", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, out["success"])
	}

	_, out = doJSON(t, h, http.MethodGet, "/history", "")
	assert.EqualValues(t, 0, out["total"])
	assert.Empty(t, out["items"])
}

func TestHealthCheck(t *testing.T) {
	h := newAPI(services.SampleAnalyzer{}, &fakeParser{}, models.NewMemoryHistory(10))

	rec, out := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", out["status"])
	assert.Equal(t, Version, out["version"])
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	c := NewAPIController(services.SampleAnalyzer{}, &fakeParser{}, models.NewMemoryHistory(10), slog.New(slog.NewTextHandler(io.Discard, nil)), 1<<20)
	c.SetHealthCheck(func(context.Context) error { return errors.New("connection refused") })
	r := chi.NewRouter()
	c.RegisterRoutes(r)

	rec, out := doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", out["status"])
}
