// Package markdown converts Markdown output to HTML using goldmark, with
// optional sanitising through bluemonday.
package markdown

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-views/pkg/views"
)

// DefaultExtensions lists the file extensions treated as Markdown.
var DefaultExtensions = []string{".md", ".markdown"}

// Option configures the transformer.
type Option func(*config)

type config struct {
	extensions []string
	sanitizer  *bluemonday.Policy
	unsafe     bool
	goldmark   []goldmark.Extender
}

// WithExtensions replaces the file extensions Supports accepts.
func WithExtensions(exts ...string) Option {
	return func(cfg *config) {
		cfg.extensions = cfg.extensions[:0]
		for _, ext := range exts {
			trimmed := strings.ToLower(strings.TrimSpace(ext))
			if trimmed == "" {
				continue
			}
			if !strings.HasPrefix(trimmed, ".") {
				trimmed = "." + trimmed
			}
			cfg.extensions = append(cfg.extensions, trimmed)
		}
	}
}

// WithSanitizer filters the generated HTML through policy.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		cfg.sanitizer = policy
	}
}

// WithUGCSanitizer filters the generated HTML through bluemonday's user
// generated content policy.
func WithUGCSanitizer() Option {
	return WithSanitizer(bluemonday.UGCPolicy())
}

// WithRawHTML keeps raw HTML found in the Markdown source, including the
// output of expanded partials. Pair it with a sanitizer when the source is
// untrusted.
func WithRawHTML() Option {
	return func(cfg *config) {
		cfg.unsafe = true
	}
}

// WithoutRawHTML replaces raw HTML in the Markdown source with an HTML
// comment. This is goldmark's default and undoes an earlier WithRawHTML.
func WithoutRawHTML() Option {
	return func(cfg *config) {
		cfg.unsafe = false
	}
}

// WithGoldmarkExtensions adds goldmark extensions on top of GFM.
func WithGoldmarkExtensions(exts ...goldmark.Extender) Option {
	return func(cfg *config) {
		cfg.goldmark = append(cfg.goldmark, exts...)
	}
}

// Transformer implements views.Transformer for Markdown sources. The goldmark
// instance and sanitizer policy are built once and shared between calls.
type Transformer struct {
	extensions []string
	markdown   goldmark.Markdown
	sanitizer  *bluemonday.Policy
}

var _ views.Transformer = (*Transformer)(nil)

// New constructs a Transformer.
func New(options ...Option) *Transformer {
	cfg := &config{
		extensions: append([]string(nil), DefaultExtensions...),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	rendererOptions := []goldmark.Option{
		goldmark.WithExtensions(append([]goldmark.Extender{extension.GFM}, cfg.goldmark...)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if cfg.unsafe {
		rendererOptions = append(rendererOptions, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	return &Transformer{
		extensions: cfg.extensions,
		markdown:   goldmark.New(rendererOptions...),
		sanitizer:  cfg.sanitizer,
	}
}

// Supports reports whether p has a Markdown extension.
func (t *Transformer) Supports(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, candidate := range t.extensions {
		if candidate == ext {
			return true
		}
	}
	return false
}

// Transform converts Markdown text to HTML.
func (t *Transformer) Transform(text string) (string, error) {
	var buf bytes.Buffer
	if err := t.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	if t.sanitizer == nil {
		return buf.String(), nil
	}
	return t.sanitizer.Sanitize(buf.String()), nil
}
