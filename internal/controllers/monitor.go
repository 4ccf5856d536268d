package controllers

import (
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/rahul4469/competitor-monitor/internal/client"
	"github.com/rahul4469/competitor-monitor/internal/fence"
	"github.com/rahul4469/competitor-monitor/internal/middleware"
	"github.com/rahul4469/competitor-monitor/internal/models"
	"github.com/rahul4469/competitor-monitor/internal/views"
)

// Result areas on the page; each one is fenced separately.
const (
	AreaText    = "text"
	AreaImage   = "image"
	AreaParse   = "parse"
	AreaHistory = "history"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory.
const multipartMemory = 8 << 20

// Backend is the analysis API as the UI needs it.
type Backend interface {
	AnalyzeText(ctx context.Context, text string) (*models.TextAnalysis, error)
	AnalyzeImage(ctx context.Context, img *client.Image) (*models.ImageAnalysis, error)
	ParseDemo(ctx context.Context, rawURL string) (*models.TextAnalysis, error)
	History(ctx context.Context) ([]models.HistoryItem, error)
	ClearHistory(ctx context.Context) error
}

// MonitorController serves the page and the fragments that replace its
// result containers.
type MonitorController struct {
	backend       Backend
	fragments     *views.Fragments
	home          *views.Template
	fence         *fence.Fence
	logger        *slog.Logger
	maxImageBytes int64
	isDevelopment bool
}

// NewMonitorController creates a new MonitorController.
func NewMonitorController(
	backend Backend,
	fragments *views.Fragments,
	home *views.Template,
	fence *fence.Fence,
	logger *slog.Logger,
	maxImageBytes int64,
	isDevelopment bool,
) *MonitorController {
	return &MonitorController{
		backend:       backend,
		fragments:     fragments,
		home:          home,
		fence:         fence,
		logger:        logger,
		maxImageBytes: maxImageBytes,
		isDevelopment: isDevelopment,
	}
}

// GetHome renders the page with the three forms and the history panel.
func (c *MonitorController) GetHome(w http.ResponseWriter, r *http.Request) {
	data := &views.TemplateData{
		Title:         "Мониторинг конкурентов",
		CSRFToken:     csrf.Token(r),
		IsDevelopment: c.isDevelopment,
	}
	c.home.ExecuteHTTP(w, r, data)
}

// PostText sends the text field to the backend.
func (c *MonitorController) PostText(w http.ResponseWriter, r *http.Request) {
	tok := c.begin(r, AreaText)

	analysis, err := c.backend.AnalyzeText(r.Context(), r.FormValue("text"))
	if err != nil {
		c.renderFailure(w, r, tok, AreaText, err)
		return
	}
	c.renderFragment(w, r, tok, func() (template.HTML, error) {
		return c.fragments.TextAnalysis(analysis)
	})
}

// PostParse sends the URL field to the backend. The answer is text-shaped.
func (c *MonitorController) PostParse(w http.ResponseWriter, r *http.Request) {
	tok := c.begin(r, AreaParse)

	analysis, err := c.backend.ParseDemo(r.Context(), r.FormValue("url"))
	if err != nil {
		c.renderFailure(w, r, tok, AreaParse, err)
		return
	}
	c.renderFragment(w, r, tok, func() (template.HTML, error) {
		return c.fragments.TextAnalysis(analysis)
	})
}

// PostImage forwards the uploaded file to the backend.
func (c *MonitorController) PostImage(w http.ResponseWriter, r *http.Request) {
	tok := c.begin(r, AreaImage)

	img, err := c.readImage(w, r)
	if err != nil {
		c.renderFailure(w, r, tok, AreaImage, err)
		return
	}

	analysis, err := c.backend.AnalyzeImage(r.Context(), img)
	if err != nil {
		c.renderFailure(w, r, tok, AreaImage, err)
		return
	}
	c.renderFragment(w, r, tok, func() (template.HTML, error) {
		return c.fragments.ImageAnalysis(analysis)
	})
}

// GetHistory renders the history panel.
func (c *MonitorController) GetHistory(w http.ResponseWriter, r *http.Request) {
	tok := c.begin(r, AreaHistory)
	c.loadHistory(w, r, tok)
}

// DeleteHistory clears history, then reloads it. The panel only changes once
// both round trips are done.
func (c *MonitorController) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	tok := c.begin(r, AreaHistory)

	if err := c.backend.ClearHistory(r.Context()); err != nil {
		c.renderFailure(w, r, tok, AreaHistory, err)
		return
	}
	c.loadHistory(w, r, tok)
}

func (c *MonitorController) loadHistory(w http.ResponseWriter, r *http.Request, tok fence.Token) {
	items, err := c.backend.History(r.Context())
	if err != nil {
		c.renderFailure(w, r, tok, AreaHistory, err)
		return
	}
	c.renderFragment(w, r, tok, func() (template.HTML, error) {
		return c.fragments.History(items)
	})
}

// readImage pulls the "file" field out of the multipart body.
func (c *MonitorController) readImage(w http.ResponseWriter, r *http.Request) (*client.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxImageBytes+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &client.ValidationError{Field: "file", Message: "Файл слишком большой"}
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, &client.ValidationError{Field: "file", Message: "Выберите файл изображения"}
		}
		return nil, err
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, &client.ValidationError{Field: "file", Message: "Выберите файл изображения"}
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > c.maxImageBytes {
		return nil, &client.ValidationError{Field: "file", Message: "Файл слишком большой"}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &client.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (c *MonitorController) begin(r *http.Request, area string) fence.Token {
	return c.fence.Begin(middleware.ClientID(r), area)
}

// renderFailure turns any error into the area's error block. Application and
// validation messages are shown as-is; everything else gets a generic text.
func (c *MonitorController) renderFailure(w http.ResponseWriter, r *http.Request, tok fence.Token, area string, err error) {
	msg := views.GenericFailure

	var appErr *client.ApplicationError
	var valErr *client.ValidationError
	switch {
	case errors.As(err, &appErr):
		msg = appErr.Message
	case errors.As(err, &valErr):
		msg = valErr.Message
	case errors.Is(err, context.Canceled):
		c.logger.DebugContext(r.Context(), "request abandoned by browser", "area", area)
	default:
		c.logger.ErrorContext(r.Context(), "backend request failed", "area", area, "error", err)
	}

	c.renderFragment(w, r, tok, func() (template.HTML, error) {
		return c.fragments.Error(msg)
	})
}

// renderFragment writes the fragment unless a newer submission for the same
// area started meanwhile; then it answers 204 and the page keeps the newer
// result.
func (c *MonitorController) renderFragment(w http.ResponseWriter, r *http.Request, tok fence.Token, render func() (template.HTML, error)) {
	if !c.fence.Current(tok) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	html, err := render()
	if err != nil {
		c.logger.ErrorContext(r.Context(), "fragment rendering failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, string(html))
}

// RegisterRoutes mounts the page and fragment routes on r.
func (c *MonitorController) RegisterRoutes(r chi.Router) {
	r.Get("/", c.GetHome)
	r.Route("/ui", func(r chi.Router) {
		r.Post("/text", c.PostText)
		r.Post("/image", c.PostImage)
		r.Post("/parse", c.PostParse)
		r.Get("/history", c.GetHistory)
		r.Delete("/history", c.DeleteHistory)
	})
}
