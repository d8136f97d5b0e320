package mailer

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"
)

// Built-in welcome email templates. Liquid rather than text/template so the
// same syntax works when operators later edit copy stored outside the binary.
const (
	welcomeSubject = `Welcome to Signal Weekly 🎉`

	welcomeHTML = `<html><body>
<h1>Welcome to Signal Weekly!</h1>
<p>Thanks for subscribing with <strong>{{ email }}</strong>.</p>
<p>Every week you'll get curated AI news and trends, distilled from thousands of sources.</p>
<p>No spam, just pure AI insights. Unsubscribe anytime.</p>
</body></html>`

	welcomeText = `Welcome to Signal Weekly!

Thanks for subscribing with {{ email }}.
Every week you'll get curated AI news and trends, distilled from thousands of sources.

No spam, just pure AI insights. Unsubscribe anytime.`
)

// TemplateService renders Liquid templates with parse caching.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewTemplateService creates a template service.
func NewTemplateService() *TemplateService {
	return &TemplateService{engine: liquid.NewEngine()}
}

// Render renders src against the given bindings, caching the parsed
// template keyed by source text.
func (ts *TemplateService) Render(src string, bindings map[string]interface{}) (string, error) {
	var tmpl *liquid.Template
	if cached, ok := ts.cache.Load(src); ok {
		tmpl = cached.(*liquid.Template)
	} else {
		parsed, err := ts.engine.ParseString(src)
		if err != nil {
			return "", fmt.Errorf("parse template: %w", err)
		}
		ts.cache.Store(src, parsed)
		tmpl = parsed
	}

	out, err := tmpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}
