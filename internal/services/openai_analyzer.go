package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rahul4469/competitor-monitor/internal/models"
)

// OpenAIAnalyzer asks an OpenAI-compatible chat model for JSON analysis.
type OpenAIAnalyzer struct {
	client      openai.Client
	model       string
	visionModel string
}

// NewOpenAIAnalyzer creates an analyzer. An empty baseURL means api.openai.com.
func NewOpenAIAnalyzer(apiKey, baseURL, model, visionModel string, timeout time.Duration) *OpenAIAnalyzer {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIAnalyzer{
		client:      openai.NewClient(opts...),
		model:       model,
		visionModel: visionModel,
	}
}

const textPrompt = `Ты аналитик по конкурентной разведке. Проанализируй текст конкурента
и ответь JSON-объектом строго такого вида:
{"strengths": [строки], "weaknesses": [строки], "unique_offers": [строки],
 "recommendations": [строки], "summary": "строка"}
Пиши по-русски, кратко и конкретно. Рекомендации адресованы нашей компании.`

const imagePrompt = `Ты маркетолог. Проанализируй рекламное изображение конкурента
и ответь JSON-объектом строго такого вида:
{"description": "строка", "insights": [строки], "visual_style_score": целое 0-10,
 "recommendations": [строки]}
Пиши по-русски.`

// AnalyzeText sends competitor text to the text model.
func (a *OpenAIAnalyzer) AnalyzeText(ctx context.Context, text string) (*models.TextAnalysis, error) {
	content, err := a.complete(ctx, a.model,
		openai.SystemMessage(textPrompt),
		openai.UserMessage(text),
	)
	if err != nil {
		return nil, err
	}

	var analysis models.TextAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode text analysis: %w", err)
	}
	analysis.Normalize()
	return &analysis, nil
}

// imageResult is what the model returns; the score may come back fractional
// or out of range.
type imageResult struct {
	Description      string   `json:"description"`
	Insights         []string `json:"insights"`
	VisualStyleScore float64  `json:"visual_style_score"`
	Recommendations  []string `json:"recommendations"`
}

// AnalyzeImage sends the image inline as a data URL to the vision model.
func (a *OpenAIAnalyzer) AnalyzeImage(ctx context.Context, image []byte, contentType string) (*models.ImageAnalysis, error) {
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)

	content, err := a.complete(ctx, a.visionModel,
		openai.SystemMessage(imagePrompt),
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart("Изображение конкурента:"),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		}),
	)
	if err != nil {
		return nil, err
	}

	var res imageResult
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return nil, fmt.Errorf("failed to decode image analysis: %w", err)
	}

	analysis := &models.ImageAnalysis{
		Description:      res.Description,
		Insights:         res.Insights,
		VisualStyleScore: json.Number(strconv.Itoa(clampScore(res.VisualStyleScore))),
		Recommendations:  res.Recommendations,
	}
	analysis.Normalize()
	return analysis, nil
}

func (a *OpenAIAnalyzer) complete(ctx context.Context, model string, messages ...openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from OpenAI API")
	}

	return stripCodeFence(resp.Choices[0].Message.Content), nil
}

// stripCodeFence removes a ```json fence some compatible servers add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// clampScore rounds to the nearest integer within 0..10.
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(10, math.Round(v))))
}
