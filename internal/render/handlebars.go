package render

import (
	"fmt"

	"github.com/mailgun/raymond/v2"
)

// TemplateRenderer turns a user-supplied theme template plus a context
// mapping into text. Implementations must be deterministic for identical
// inputs and must not execute arbitrary code from the template.
type TemplateRenderer interface {
	Render(templateText string, ctx map[string]any) (string, error)
}

// Handlebars renders theme templates with the handlebars language, which
// is logic-less: user templates can only read the context handed to them.
type Handlebars struct{}

func NewHandlebars() Handlebars { return Handlebars{} }

func (Handlebars) Render(templateText string, ctx map[string]any) (string, error) {
	out, err := raymond.Render(templateText, ctx)
	if err != nil {
		return "", fmt.Errorf("render theme template: %w", err)
	}
	return out, nil
}
