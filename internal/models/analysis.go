package models

import (
	"encoding/json"
	"strings"
)

// Request types for the analysis endpoints.
type (
	TextAnalysisRequest struct {
		Text string `json:"text"`
	}

	ParseDemoRequest struct {
		URL string `json:"url"`
	}
)

// TextAnalysis is the structured result for text and parsed pages.
type TextAnalysis struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	UniqueOffers    []string `json:"unique_offers"`
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"summary"`
}

// ImageAnalysis is the structured result for an uploaded image.
//
// VisualStyleScore keeps the number exactly as the backend sent it, so the
// rendered score is never rounded or clamped on this side.
type ImageAnalysis struct {
	Description      string      `json:"description"`
	Insights         []string    `json:"insights"`
	VisualStyleScore json.Number `json:"visual_style_score"`
	Recommendations  []string    `json:"recommendations"`
}

// Normalize replaces missing lists with empty ones so they encode as [].
func (a *TextAnalysis) Normalize() {
	a.Strengths = nonNil(a.Strengths)
	a.Weaknesses = nonNil(a.Weaknesses)
	a.UniqueOffers = nonNil(a.UniqueOffers)
	a.Recommendations = nonNil(a.Recommendations)
}

// Normalize replaces missing lists with empty ones so they encode as [].
func (a *ImageAnalysis) Normalize() {
	a.Insights = nonNil(a.Insights)
	a.Recommendations = nonNil(a.Recommendations)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ParsedContent is what the page parser pulled out of a URL.
type ParsedContent struct {
	Title          string `json:"title"`
	H1             string `json:"h1"`
	FirstParagraph string `json:"first_paragraph"`
}

// Text joins the parsed parts into the text that gets analyzed.
func (p ParsedContent) Text() string {
	return strings.Join([]string{p.Title, p.H1, p.FirstParagraph}, " ")
}

// APIResponse wraps every analysis result. Success implies Analysis is set,
// failure implies Error is set.
type APIResponse[T any] struct {
	Success  bool           `json:"success"`
	Analysis *T             `json:"analysis,omitempty"`
	Parsed   *ParsedContent `json:"parsed,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type (
	TextAnalysisResponse  = APIResponse[TextAnalysis]
	ImageAnalysisResponse = APIResponse[ImageAnalysis]
)

// Succeeded builds a successful response around analysis.
func Succeeded[T any](analysis *T) APIResponse[T] {
	return APIResponse[T]{Success: true, Analysis: analysis}
}

// Failed builds an application-level failure.
func Failed[T any](msg string) APIResponse[T] {
	return APIResponse[T]{Success: false, Error: msg}
}

// Validate reports whether the response honours the success/error invariant.
func (r APIResponse[T]) Validate() error {
	switch {
	case r.Success && r.Analysis == nil:
		return ErrMissingAnalysis
	case !r.Success && r.Error == "":
		return ErrMissingError
	}
	return nil
}
