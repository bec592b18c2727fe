package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/goliatone/go-views/pkg/frontmatter"
)

// Composer renders views and wraps them in their layout chain.
type Composer struct {
	resources    Resources
	expander     Expander
	transformers []Transformer
	logger       *slog.Logger
	layoutsDir   string
}

// frame records one level of the layout chain.
type frame struct {
	view string
	path string
}

// New constructs a Composer from its collaborators. Resources and expander are
// required; transformers, logging, and the layouts directory come from
// options.
func New(resources Resources, expander Expander, options ...Option) (*Composer, error) {
	if resources == nil {
		return nil, errors.New("views: resources are required")
	}
	if expander == nil {
		return nil, errors.New("views: expander is required")
	}

	cfg := defaultConfig()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	return &Composer{
		resources:    resources,
		expander:     expander,
		transformers: cfg.transformers,
		logger:       cfg.logger,
		layoutsDir:   cfg.layoutsDir,
	}, nil
}

// Render expands viewID with vars and composes it into its layouts. Caller
// variables override the view's front-matter defaults. Any failure along the
// layout chain aborts the whole render and is reported as a *RenderError.
func (c *Composer) Render(ctx context.Context, viewID string, vars map[string]any) (string, error) {
	if ctx == nil {
		return "", errors.New("views: context is required")
	}
	return c.render(ctx, viewID, vars, nil)
}

func (c *Composer) render(ctx context.Context, viewID string, vars map[string]any, parents []frame) (string, error) {
	view := normalizeView(viewID)
	if err := ctx.Err(); err != nil {
		return "", newRenderError(ErrAborted, view, "", chainOf(parents), err)
	}
	for _, parent := range parents {
		if parent.view == view {
			return "", newRenderError(ErrCyclicLayout, view, "", chainOf(parents), nil)
		}
	}

	resolved, ok := c.resources.Resolve(view)
	if !ok {
		return "", newRenderError(ErrTemplateNotFound, view, "", chainOf(parents), nil)
	}
	for _, parent := range parents {
		if parent.path == resolved {
			return "", newRenderError(ErrCyclicLayout, view, resolved, chainOf(parents), nil)
		}
	}

	c.logger.DebugContext(ctx, "views: render", "view", view, "path", resolved, "depth", len(parents))

	source, err := c.resources.Read(resolved)
	if err != nil {
		return "", newRenderError(ErrRead, view, resolved, chainOf(parents), err)
	}

	doc, err := frontmatter.Parse(source)
	if err != nil {
		return "", newRenderError(ErrFrontMatter, view, resolved, chainOf(parents), err)
	}

	all := Merge(doc.Variables, vars)

	body, err := c.expander.Expand(doc.Content, all)
	if err != nil {
		return "", newRenderError(ErrExpansion, view, resolved, chainOf(parents), err)
	}

	if t := c.transformerFor(resolved); t != nil {
		body, err = t.Transform(body)
		if err != nil {
			return "", newRenderError(ErrTransform, view, resolved, chainOf(parents), err)
		}
	}

	layout, err := layoutName(doc.Variables)
	if err != nil {
		return "", newRenderError(ErrFrontMatter, view, resolved, chainOf(parents), err)
	}
	if layout == "" {
		return body, nil
	}

	layoutView := c.layoutsDir + "/" + strings.TrimPrefix(layout, "/")
	c.logger.DebugContext(ctx, "views: apply layout", "view", view, "layout", layoutView)

	wrapped, err := c.render(ctx, layoutView, all, append(parents, frame{view: view, path: resolved}))
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(wrapped, BodyPlaceholder, body), nil
}

func (c *Composer) transformerFor(resolved string) Transformer {
	for _, t := range c.transformers {
		if t.Supports(resolved) {
			return t
		}
	}
	return nil
}

// layoutName reads the layout key from front-matter variables. Missing, null,
// and blank values mean the view has no layout.
func layoutName(vars map[string]any) (string, error) {
	raw, ok := vars[LayoutKey]
	if !ok || raw == nil {
		return "", nil
	}
	name, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%q must be a string, got %T", LayoutKey, raw)
	}
	return strings.TrimSpace(name), nil
}

func normalizeView(viewID string) string {
	trimmed := strings.TrimSpace(viewID)
	if trimmed == "" {
		return trimmed
	}
	cleaned := path.Clean("/" + trimmed)
	return strings.TrimPrefix(cleaned, "/")
}

func chainOf(frames []frame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.view)
	}
	return out
}
