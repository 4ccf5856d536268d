package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rahul4469/competitor-monitor/internal/models"
)

// Backend endpoints.
const (
	PathAnalyzeText  = "/analyze_text"
	PathAnalyzeImage = "/analyze_image"
	PathParseDemo    = "/parse_demo"
	PathHistory      = "/history"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client talks to the analysis backend. Every call is one round trip; there
// are no retries and nothing is cached.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

// Image is an uploaded file ready to be forwarded.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AnalyzeText posts text to /analyze_text.
func (c *Client) AnalyzeText(ctx context.Context, text string) (*models.TextAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "text", Message: "Введите текст для анализа"}
	}
	var resp models.TextAnalysisResponse
	if err := c.postJSON(ctx, PathAnalyzeText, models.TextAnalysisRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return unwrap(PathAnalyzeText, resp)
}

// ParseDemo posts a URL to /parse_demo. The backend answers with a
// text-shaped analysis.
func (c *Client) ParseDemo(ctx context.Context, rawURL string) (*models.TextAnalysis, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, &ValidationError{Field: "url", Message: "Введите URL сайта"}
	}
	var resp models.TextAnalysisResponse
	if err := c.postJSON(ctx, PathParseDemo, models.ParseDemoRequest{URL: rawURL}, &resp); err != nil {
		return nil, err
	}
	return unwrap(PathParseDemo, resp)
}

// AnalyzeImage uploads img as the multipart field "file" to /analyze_image.
func (c *Client) AnalyzeImage(ctx context.Context, img *Image) (*models.ImageAnalysis, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, &ValidationError{Field: "file", Message: "Выберите файл изображения"}
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(img.Filename)))
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	var resp models.ImageAnalysisResponse
	if err := c.do(ctx, http.MethodPost, PathAnalyzeImage, body, mw.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return unwrap(PathAnalyzeImage, resp)
}

// History fetches the history list in server order.
func (c *Client) History(ctx context.Context) ([]models.HistoryItem, error) {
	var resp models.HistoryResponse
	if err := c.do(ctx, http.MethodGet, PathHistory, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ClearHistory deletes the history. The response body is ignored.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, PathHistory, nil, "", nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(jsonBody), "application/json", out)
}

// do sends one request and decodes the JSON body into out when out is set.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{
			Endpoint: path,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%w: %s", ErrUnexpectedStatus, strings.TrimSpace(string(snippet))),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &TransportError{Endpoint: path, Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	return nil
}

// unwrap turns an envelope into its analysis or a classified error.
func unwrap[T any](path string, resp models.APIResponse[T]) (*T, error) {
	if err := resp.Validate(); err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}
	if !resp.Success {
		return nil, &ApplicationError{Message: resp.Error}
	}
	return resp.Analysis, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
