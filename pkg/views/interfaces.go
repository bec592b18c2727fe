package views

// Resources locates and reads template sources.
type Resources interface {
	// Resolve maps a view identifier to a readable path. ok is false when no
	// template exists for uri.
	Resolve(uri string) (path string, ok bool)
	// Read returns the raw source stored at path.
	Read(path string) ([]byte, error)
}

// Expander turns template content plus variables into text.
type Expander interface {
	Expand(content string, vars map[string]any) (string, error)
}

// Transformer rewrites expanded output for the paths it supports, for example
// Markdown to HTML.
type Transformer interface {
	Supports(path string) bool
	Transform(text string) (string, error)
}

// ExpanderFunc adapts a plain function to the Expander interface.
type ExpanderFunc func(content string, vars map[string]any) (string, error)

// Expand calls f.
func (f ExpanderFunc) Expand(content string, vars map[string]any) (string, error) {
	return f(content, vars)
}
