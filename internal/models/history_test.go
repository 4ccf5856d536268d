package models

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHistory_KeepsNewest(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Save(ctx, NewHistoryEntry(RequestText, fmt.Sprintf("req %d", i), "ok")))
	}

	items, err := h.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "req 2", items[0].RequestSummary)
	assert.Equal(t, "req 4", items[2].RequestSummary)
}

func TestMemoryHistory_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(0)
	require.NoError(t, h.Save(ctx, NewHistoryEntry(RequestImage, "a.png", "ok")))

	require.NoError(t, h.Clear(ctx))
	require.NoError(t, h.Clear(ctx))

	items, err := h.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestNewHistoryEntry(t *testing.T) {
	text := strings.Repeat("ж", SummaryLength+20)
	e := NewHistoryEntry(RequestText, text, "резюме")

	assert.Equal(t, strings.Repeat("ж", SummaryLength), e.RequestSummary)

	item := e.Item()
	assert.Equal(t, e.ID.String(), item.ID)
	assert.Equal(t, RequestText, item.RequestType)
	assert.Equal(t, "резюме", item.ResponseSummary)

	ts, err := time.Parse(time.RFC3339, item.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "абв", Truncate("абвгд", 3))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("", 3))
}

func TestAPIResponse_Validate(t *testing.T) {
	assert.NoError(t, Succeeded(&TextAnalysis{}).Validate())
	assert.NoError(t, Failed[TextAnalysis]("boom").Validate())
	assert.ErrorIs(t, TextAnalysisResponse{Success: true}.Validate(), ErrMissingAnalysis)
	assert.ErrorIs(t, ImageAnalysisResponse{}.Validate(), ErrMissingError)
}

func TestParsedContent_Text(t *testing.T) {
	p := ParsedContent{Title: "Заголовок", H1: "Шапка", FirstParagraph: "Абзац"}
	assert.Equal(t, "Заголовок Шапка Абзац", p.Text())
}

func TestNormalize_KeepsListsNonNil(t *testing.T) {
	text := &TextAnalysis{Strengths: []string{"цена"}, Summary: "ok"}
	text.Normalize()
	assert.Equal(t, []string{"цена"}, text.Strengths)
	assert.NotNil(t, text.Weaknesses)
	assert.NotNil(t, text.UniqueOffers)
	assert.NotNil(t, text.Recommendations)

	img := &ImageAnalysis{}
	img.Normalize()
	assert.NotNil(t, img.Insights)
	assert.NotNil(t, img.Recommendations)
}
