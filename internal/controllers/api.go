package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rahul4469/competitor-monitor/internal/models"
	"github.com/rahul4469/competitor-monitor/internal/services"
)

const (
	// MinTextLength is the shortest text the backend will analyze.
	MinTextLength = 10

	maxJSONBody = 1 << 20
)

// allowedImageTypes are the upload types /analyze_image accepts.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

// PageParser fetches and extracts a page for /parse_demo.
type PageParser interface {
	Parse(ctx context.Context, rawURL string) (*models.ParsedContent, error)
}

// APIController serves the analysis JSON API.
type APIController struct {
	analyzer      services.Analyzer
	parser        PageParser
	history       models.HistoryStore
	logger        *slog.Logger
	maxImageBytes int64
	healthCheck   func(context.Context) error
}

// NewAPIController creates a new APIController.
func NewAPIController(
	analyzer services.Analyzer,
	parser PageParser,
	history models.HistoryStore,
	logger *slog.Logger,
	maxImageBytes int64,
) *APIController {
	return &APIController{
		analyzer:      analyzer,
		parser:        parser,
		history:       history,
		logger:        logger,
		maxImageBytes: maxImageBytes,
	}
}

// SetHealthCheck makes /health depend on check, typically a database ping.
func (c *APIController) SetHealthCheck(check func(context.Context) error) {
	c.healthCheck = check
}

// PostAnalyzeText handles POST /analyze_text.
func (c *APIController) PostAnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req models.TextAnalysisRequest
	if !c.decodeJSON(w, r, &req) {
		return
	}

	if utf8.RuneCountInString(req.Text) < MinTextLength {
		writeJSON(w, r, http.StatusOK, models.Failed[models.TextAnalysis](models.ErrTextTooShort.Error()))
		return
	}

	analysis, err := c.analyzer.AnalyzeText(r.Context(), req.Text)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "text analysis failed", "error", err)
		writeJSON(w, r, http.StatusOK, models.Failed[models.TextAnalysis]("не удалось выполнить анализ текста"))
		return
	}

	c.record(r.Context(), models.NewHistoryEntry(models.RequestText, req.Text, analysis.Summary))
	writeJSON(w, r, http.StatusOK, models.Succeeded(analysis))
}

// PostAnalyzeImage handles POST /analyze_image with a multipart "file" field.
func (c *APIController) PostAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxImageBytes+multipartMemory)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		msg := "Файл не передан"
		if errors.As(err, &tooLarge) {
			msg = "Файл слишком большой"
		}
		writeJSON(w, r, http.StatusOK, models.Failed[models.ImageAnalysis](msg))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		writeJSON(w, r, http.StatusOK, models.Failed[models.ImageAnalysis](models.ErrUnsupportedImage.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, models.Failed[models.ImageAnalysis]("не удалось прочитать файл"))
		return
	}

	analysis, err := c.analyzer.AnalyzeImage(r.Context(), data, contentType)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "image analysis failed", "file", header.Filename, "error", err)
		writeJSON(w, r, http.StatusOK, models.Failed[models.ImageAnalysis]("не удалось выполнить анализ изображения"))
		return
	}

	c.record(r.Context(), models.NewHistoryEntry(models.RequestImage, header.Filename, analysis.Description))
	writeJSON(w, r, http.StatusOK, models.Succeeded(analysis))
}

// PostParseDemo handles POST /parse_demo: fetch the page, then analyze its
// title, h1 and first paragraph as text.
func (c *APIController) PostParseDemo(w http.ResponseWriter, r *http.Request) {
	var req models.ParseDemoRequest
	if !c.decodeJSON(w, r, &req) {
		return
	}

	parsed, err := c.parser.Parse(r.Context(), req.URL)
	if err != nil {
		c.logger.WarnContext(r.Context(), "page parsing failed", "url", req.URL, "error", err)
		writeJSON(w, r, http.StatusOK, models.Failed[models.TextAnalysis](err.Error()))
		return
	}

	analysis, err := c.analyzer.AnalyzeText(r.Context(), parsed.Text())
	if err != nil {
		c.logger.ErrorContext(r.Context(), "parsed page analysis failed", "url", req.URL, "error", err)
		writeJSON(w, r, http.StatusOK, models.Failed[models.TextAnalysis]("не удалось выполнить анализ страницы"))
		return
	}

	c.record(r.Context(), models.NewHistoryEntry(models.RequestParse, req.URL, analysis.Summary))
	resp := models.Succeeded(analysis)
	resp.Parsed = parsed
	writeJSON(w, r, http.StatusOK, resp)
}

// GetHistory handles GET /history.
func (c *APIController) GetHistory(w http.ResponseWriter, r *http.Request) {
	items, err := c.history.List(r.Context())
	if err != nil {
		c.logger.ErrorContext(r.Context(), "history load failed", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, models.HistoryResponse{Items: items, Total: len(items)})
}

// DeleteHistory handles DELETE /history.
func (c *APIController) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := c.history.Clear(r.Context()); err != nil {
		c.logger.ErrorContext(r.Context(), "history clear failed", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, models.ClearHistoryResponse{Success: true, Message: "История очищена"})
}

// record saves a history entry; a failed save never fails the analysis.
func (c *APIController) record(ctx context.Context, entry models.HistoryEntry) {
	if err := c.history.Save(ctx, entry); err != nil {
		c.logger.WarnContext(ctx, "failed to save history", "type", entry.RequestType, "error", err)
	}
}

func (c *APIController) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		writeJSON(w, r, http.StatusBadRequest, models.Failed[models.TextAnalysis]("некорректный JSON в запросе"))
		return false
	}
	return true
}

// RegisterRoutes mounts the API on r.
func (c *APIController) RegisterRoutes(r chi.Router) {
	r.Post("/analyze_text", c.PostAnalyzeText)
	r.Post("/analyze_image", c.PostAnalyzeImage)
	r.Post("/parse_demo", c.PostParseDemo)
	r.Get("/history", c.GetHistory)
	r.Delete("/history", c.DeleteHistory)
	if c.healthCheck != nil {
		r.Get("/health", HealthCheckWith(c.healthCheck))
	} else {
		r.Get("/health", HealthCheck)
	}
}
