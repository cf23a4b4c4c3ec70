package core

import "github.com/hupe1980/contexa/internal/util"

// Prompt is a system prompt template. Templates use text/template syntax
// with the helpers default, upper, lower, title and join; text without
// template markers renders unchanged.
type Prompt struct {
	Template string
}

// NewPrompt creates a prompt from template text.
func NewPrompt(template string) Prompt { return Prompt{Template: template} }

// Render executes the template against vars.
func (p Prompt) Render(vars map[string]any) (string, error) {
	return util.RenderTemplate(p.Template, vars)
}
