package views

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-views/pkg/expand"
	"github.com/goliatone/go-views/pkg/expand/pongo"
	"github.com/goliatone/go-views/pkg/markup/markdown"
	"github.com/goliatone/go-views/pkg/resources"
	pkgviews "github.com/goliatone/go-views/pkg/views"
)

// Composer renders views into their layout chain.
type Composer = pkgviews.Composer

// RenderError aliases pkgviews.RenderError for callers inspecting failures.
type RenderError = pkgviews.RenderError

// Error kinds re-exported from pkg/views.
var (
	ErrTemplateNotFound = pkgviews.ErrTemplateNotFound
	ErrRead             = pkgviews.ErrRead
	ErrFrontMatter      = pkgviews.ErrFrontMatter
	ErrExpansion        = pkgviews.ErrExpansion
	ErrTransform        = pkgviews.ErrTransform
	ErrCyclicLayout     = pkgviews.ErrCyclicLayout
	ErrAborted          = pkgviews.ErrAborted
)

// Option customises the default wiring built by New.
type Option func(*config)

type config struct {
	expander        pkgviews.Expander
	engine          string
	registry        *expand.Registry
	resourceOptions []resources.Option
	pongoOptions    []pongo.Option
	markdownOptions []markdown.Option
	composerOptions []pkgviews.Option
	disableMarkdown bool
}

// WithExpander replaces the default pongo2 expander.
func WithExpander(expander pkgviews.Expander) Option {
	return func(cfg *config) {
		cfg.expander = expander
	}
}

// WithEngine selects a registered expansion engine by name, see
// expand.Default. Ignored when WithExpander is set.
func WithEngine(name string) Option {
	return func(cfg *config) {
		cfg.engine = name
	}
}

// WithEngineRegistry replaces the registry WithEngine looks names up in.
func WithEngineRegistry(registry *expand.Registry) Option {
	return func(cfg *config) {
		cfg.registry = registry
	}
}

// WithResourceOptions forwards options to the fs.FS resolver.
func WithResourceOptions(options ...resources.Option) Option {
	return func(cfg *config) {
		cfg.resourceOptions = append(cfg.resourceOptions, options...)
	}
}

// WithPongoOptions forwards options to the pongo2 expander used when no other
// engine is selected.
func WithPongoOptions(options ...pongo.Option) Option {
	return func(cfg *config) {
		cfg.pongoOptions = append(cfg.pongoOptions, options...)
	}
}

// WithMarkdownOptions forwards options to the Markdown transformer. Raw HTML
// is kept by default so inline markup and included partials survive; pass
// markdown.WithoutRawHTML or a sanitizer to restrict it.
func WithMarkdownOptions(options ...markdown.Option) Option {
	return func(cfg *config) {
		cfg.markdownOptions = append(cfg.markdownOptions, options...)
	}
}

// WithoutMarkdown disables the Markdown transformer.
func WithoutMarkdown() Option {
	return func(cfg *config) {
		cfg.disableMarkdown = true
	}
}

// WithComposerOptions forwards options to the Composer.
func WithComposerOptions(options ...pkgviews.Option) Option {
	return func(cfg *config) {
		cfg.composerOptions = append(cfg.composerOptions, options...)
	}
}

// WithLogger sets the Composer's logger.
func WithLogger(logger *slog.Logger) Option {
	return WithComposerOptions(pkgviews.WithLogger(logger))
}

// New wires a Composer over the templates in fsys: views resolve through
// the fs.FS resolver, expand with pongo2 (partials included from the same
// tree), and Markdown views are converted to HTML, raw HTML kept, before
// layout composition.
func New(fsys fs.FS, options ...Option) (*Composer, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	res, err := resources.New(fsys, cfg.resourceOptions...)
	if err != nil {
		return nil, err
	}

	expander, err := buildExpander(cfg, fsys)
	if err != nil {
		return nil, err
	}

	composerOptions := cfg.composerOptions
	if !cfg.disableMarkdown {
		composerOptions = append([]pkgviews.Option{
			pkgviews.WithTransformers(markdown.New(
				append([]markdown.Option{markdown.WithRawHTML()}, cfg.markdownOptions...)...,
			)),
		}, composerOptions...)
	}

	return pkgviews.New(res, expander, composerOptions...)
}

func buildExpander(cfg *config, fsys fs.FS) (pkgviews.Expander, error) {
	if cfg.expander != nil {
		return cfg.expander, nil
	}

	engine := strings.ToLower(strings.TrimSpace(cfg.engine))
	if engine == "" || engine == expand.Pongo {
		pongoOptions := append([]pongo.Option{pongo.WithFS(fsys)}, cfg.pongoOptions...)
		expander, err := pongo.New(pongoOptions...)
		if err != nil {
			return nil, fmt.Errorf("views: build expander: %w", err)
		}
		return expander, nil
	}

	registry := cfg.registry
	if registry == nil {
		registry = expand.Default()
	}
	return registry.Build(engine, fsys)
}

// NewDir is New over a directory on disk.
func NewDir(root string, options ...Option) (*Composer, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("views: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("views: %s is not a directory", root)
	}
	return New(os.DirFS(root), options...)
}
