package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Template names.
const (
	TemplateConfirm     = "auth/email/confirm"
	TemplateReset       = "auth/email/reset_password"
	TemplateChangeEmail = "auth/email/change_email"
)

var builtinTemplates = map[string]string{
	TemplateConfirm: `Dear {{ .user.Username | default .user.Email }},

Welcome to {{ .app }}!

To confirm your account please send the following token to
POST {{ .base_url }}/api/v1/auth/confirm/{{ .token }}

The token expires in {{ .expires_in }}.

Sincerely,
The {{ .app }} Team
`,
	TemplateReset: `Dear {{ .user.Username | default .user.Email }},

To reset your password send your new password to
POST {{ .base_url }}/api/v1/auth/reset/{{ .token }}

If you have not requested a password reset simply ignore this message.
The token expires in {{ .expires_in }}.

Sincerely,
The {{ .app }} Team
`,
	TemplateChangeEmail: `Dear {{ .user.Username | default .user.Email }},

To confirm your new email address {{ .new_email | lower }} send the following token to
POST {{ .base_url }}/api/v1/auth/change-email/{{ .token }}

The token expires in {{ .expires_in }}.

Sincerely,
The {{ .app }} Team
`,
}

// Renderer executes the email templates with the sprig function map.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(builtinTemplates))}
	for name, body := range builtinTemplates {
		tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("mail: unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
