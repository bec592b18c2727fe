// Package gotext expands templates with text/template and the sprig function
// library. Variables are addressed with a leading dot: {{ .name }}.
package gotext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/goliatone/go-views/pkg/views"
)

// Option configures the expander.
type Option func(*config)

type config struct {
	funcs      template.FuncMap
	strictKeys bool
	leftDelim  string
	rightDelim string
}

// WithFuncs adds template functions on top of sprig's. Later registrations
// win on name clashes.
func WithFuncs(funcs template.FuncMap) Option {
	return func(cfg *config) {
		for name, fn := range funcs {
			trimmed := strings.TrimSpace(name)
			if trimmed == "" || fn == nil {
				continue
			}
			cfg.funcs[trimmed] = fn
		}
	}
}

// WithStrictKeys makes references to missing variables fail expansion
// instead of printing "<no value>".
func WithStrictKeys() Option {
	return func(cfg *config) {
		cfg.strictKeys = true
	}
}

// WithDelims overrides the action delimiters.
func WithDelims(left, right string) Option {
	return func(cfg *config) {
		cfg.leftDelim = left
		cfg.rightDelim = right
	}
}

// Expander implements views.Expander with text/template.
type Expander struct {
	funcs      template.FuncMap
	missingKey string
	leftDelim  string
	rightDelim string
}

var _ views.Expander = (*Expander)(nil)

// New constructs an Expander. Sprig's text function map is always installed.
func New(options ...Option) *Expander {
	cfg := &config{funcs: sprig.TxtFuncMap()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	missingKey := "missingkey=default"
	if cfg.strictKeys {
		missingKey = "missingkey=error"
	}

	return &Expander{
		funcs:      cfg.funcs,
		missingKey: missingKey,
		leftDelim:  cfg.leftDelim,
		rightDelim: cfg.rightDelim,
	}
}

// Expand implements views.Expander.
func (e *Expander) Expand(content string, vars map[string]any) (string, error) {
	if e == nil {
		return "", errors.New("gotext: expander is nil")
	}

	tmpl, err := template.New("view").
		Delims(e.leftDelim, e.rightDelim).
		Option(e.missingKey).
		Funcs(e.funcs).
		Parse(content)
	if err != nil {
		return "", fmt.Errorf("gotext: parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("gotext: execute template: %w", err)
	}
	return buf.String(), nil
}
