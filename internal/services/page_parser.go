package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rahul4469/competitor-monitor/internal/models"
)

const (
	// MinParagraphLength is the shortest <p> accepted as the first paragraph.
	MinParagraphLength = 50

	maxPageBytes = 5 << 20
	userAgent    = "Mozilla/5.0 (compatible; CompetitorMonitor/1.0)"
)

// PageParser pulls the title, first h1 and first substantial paragraph out of
// a page.
type PageParser struct {
	Client *http.Client
}

func NewPageParser(timeout time.Duration) *PageParser {
	return &PageParser{
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NormalizeURL adds https:// to anything that does not start with http.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.HasPrefix(raw, "http") {
		return "https://" + raw
	}
	return raw
}

// Parse fetches rawURL and extracts its content.
func (p *PageParser) Parse(ctx context.Context, rawURL string) (*models.ParsedContent, error) {
	target := NormalizeURL(rawURL)
	if target == "" {
		return nil, models.ErrEmptyURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", target, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.FetchError{URL: target, Status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := Extract(doc)
	return &content, nil
}

// Extract reads the parts of doc that get analyzed.
func Extract(doc *goquery.Document) models.ParsedContent {
	content := models.ParsedContent{
		Title: normalizeText(doc.Find("title").First().Text()),
		H1:    normalizeText(doc.Find("h1").First().Text()),
	}

	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := normalizeText(s.Text())
		if utf8.RuneCountInString(text) >= MinParagraphLength {
			content.FirstParagraph = text
			return false
		}
		return true
	})

	return content
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
