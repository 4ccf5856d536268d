package services

import (
	"context"
	"encoding/json"

	"github.com/rahul4469/competitor-monitor/internal/models"
)

// Analyzer turns competitor material into structured analysis.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*models.TextAnalysis, error)
	AnalyzeImage(ctx context.Context, image []byte, contentType string) (*models.ImageAnalysis, error)
}

// SampleAnalyzer returns fixed results. It keeps the backend usable with no
// OpenAI key configured.
type SampleAnalyzer struct{}

func (SampleAnalyzer) AnalyzeText(_ context.Context, _ string) (*models.TextAnalysis, error) {
	return &models.TextAnalysis{
		Strengths:       []string{"Сильный бренд", "Хорошая поддержка", "Широкий ассортимент"},
		Weaknesses:      []string{"Высокие цены", "Медленная доставка"},
		UniqueOffers:    []string{"Эксклюзивные продукты"},
		Recommendations: []string{"Снизить цены", "Улучшить логистику"},
		Summary:         "Конкурент силён, но есть возможности для улучшения.",
	}, nil
}

func (SampleAnalyzer) AnalyzeImage(_ context.Context, _ []byte, _ string) (*models.ImageAnalysis, error) {
	return &models.ImageAnalysis{
		Description:      "Баннер с яркой цветовой палитрой и современным шрифтом.",
		Insights:         []string{"Привлекает внимание", "Хорошая композиция"},
		VisualStyleScore: json.Number("8"),
		Recommendations:  []string{"Добавить CTA", "Упростить дизайн"},
	}, nil
}
