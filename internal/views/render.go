package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/rahul4469/competitor-monitor/internal/models"
)

// GenericFailure is shown when the backend could not be reached or answered
// with something unusable.
const GenericFailure = "не удалось получить ответ от сервера, попробуйте ещё раз"

// Fragments renders result-container markup. Every method is a pure function
// of its argument; callers decide which container the markup goes into.
type Fragments struct {
	tmpl *template.Template
}

// NewFragments parses the partials from fsys.
func NewFragments(fsys fs.FS) (*Fragments, error) {
	tmpl, err := parsePartials(fsys, template.New(""))
	if err != nil {
		return nil, err
	}
	return &Fragments{tmpl: tmpl}, nil
}

// TextAnalysis renders the four labeled lists and the summary.
func (f *Fragments) TextAnalysis(a *models.TextAnalysis) (template.HTML, error) {
	if a == nil {
		a = &models.TextAnalysis{}
	}
	return f.render("text-analysis", a)
}

// ImageAnalysis renders description, insights, score and recommendations.
func (f *Fragments) ImageAnalysis(a *models.ImageAnalysis) (template.HTML, error) {
	if a == nil {
		a = &models.ImageAnalysis{}
	}
	return f.render("image-analysis", a)
}

// Error renders the single error block, message shown verbatim.
func (f *Fragments) Error(msg string) (template.HTML, error) {
	return f.render("error-block", msg)
}

// History renders one block per item in the given order, or the empty
// placeholder.
func (f *Fragments) History(items []models.HistoryItem) (template.HTML, error) {
	return f.render("history-list", items)
}

func (f *Fragments) render(name string, data any) (template.HTML, error) {
	buf := &bytes.Buffer{}
	if err := f.tmpl.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
