package views

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds carried by RenderError. Match them with errors.Is.
var (
	ErrTemplateNotFound = errors.New("views: template not found")
	ErrRead             = errors.New("views: read template")
	ErrFrontMatter      = errors.New("views: invalid front matter")
	ErrExpansion        = errors.New("views: expand template")
	ErrTransform        = errors.New("views: transform output")
	ErrCyclicLayout     = errors.New("views: cyclic layout reference")
	ErrAborted          = errors.New("views: render aborted")
)

// RenderError describes the view that failed and why. It is created at the
// level of the layout chain where the failure happened and returned unchanged
// by every enclosing level.
type RenderError struct {
	// View is the identifier being rendered when the failure occurred.
	View string
	// Path is the resolved template path, empty when resolution failed.
	Path string
	// Kind is one of the Err* sentinels of this package.
	Kind error
	// Chain lists the view identifiers rendered so far, outermost first.
	Chain []string
	// Err is the underlying cause, if any.
	Err error
}

func (e *RenderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	fmt.Fprintf(&b, " %q", e.View)
	if errors.Is(e.Kind, ErrCyclicLayout) && len(e.Chain) > 0 {
		fmt.Fprintf(&b, " (chain: %s -> %s)", strings.Join(e.Chain, " -> "), e.View)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *RenderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newRenderError(kind error, view, path string, chain []string, cause error) *RenderError {
	return &RenderError{
		View:  view,
		Path:  path,
		Kind:  kind,
		Chain: append([]string(nil), chain...),
		Err:   cause,
	}
}
