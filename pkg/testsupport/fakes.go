package testsupport

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/goliatone/go-views/pkg/views"
)

// MapResources serves templates from memory. Views resolve either by exact
// key or by key plus one of Extensions. Reads are counted per path.
type MapResources struct {
	Files      map[string]string
	Extensions []string
	// ReadErr, when set, is returned by Read for every path.
	ReadErr error

	mu    sync.Mutex
	reads map[string]int
}

var _ views.Resources = (*MapResources)(nil)

// NewMapResources builds a MapResources that tries ".html", ".hbs" and ".md".
func NewMapResources(files map[string]string) *MapResources {
	return &MapResources{
		Files:      files,
		Extensions: []string{".html", ".hbs", ".md"},
	}
}

// Resolve implements views.Resources.
func (r *MapResources) Resolve(uri string) (string, bool) {
	if _, ok := r.Files[uri]; ok {
		return uri, true
	}
	for _, ext := range r.Extensions {
		if _, ok := r.Files[uri+ext]; ok {
			return uri + ext, true
		}
	}
	return "", false
}

// Read implements views.Resources.
func (r *MapResources) Read(p string) ([]byte, error) {
	r.mu.Lock()
	if r.reads == nil {
		r.reads = make(map[string]int)
	}
	r.reads[p]++
	r.mu.Unlock()

	if r.ReadErr != nil {
		return nil, r.ReadErr
	}
	content, ok := r.Files[p]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	return []byte(content), nil
}

// Reads reports how many times p was read.
func (r *MapResources) Reads(p string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads[p]
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// ErrUnclosedTag is returned by RecordingExpander for content holding "{{"
// without a matching "}}".
var ErrUnclosedTag = errors.New("testsupport: unclosed tag")

// RecordingExpander substitutes {{ name }} references with fmt.Sprint of the
// matching variable and records every call. Unknown names expand to "".
type RecordingExpander struct {
	mu    sync.Mutex
	calls []ExpandCall
}

// ExpandCall captures the arguments of one Expand call.
type ExpandCall struct {
	Content string
	Vars    map[string]any
}

var _ views.Expander = (*RecordingExpander)(nil)

// Expand implements views.Expander.
func (e *RecordingExpander) Expand(content string, vars map[string]any) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, ExpandCall{Content: content, Vars: vars})
	e.mu.Unlock()

	stripped := placeholderPattern.ReplaceAllString(content, "")
	if strings.Contains(stripped, "{{") {
		return "", ErrUnclosedTag
	}

	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok || value == nil {
			return ""
		}
		return fmt.Sprint(value)
	}), nil
}

// Calls returns a copy of the recorded calls.
func (e *RecordingExpander) Calls() []ExpandCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ExpandCall(nil), e.calls...)
}

// RecordingTransformer supports paths with one of Extensions and wraps text
// in Prefix and Suffix. Calls are counted.
type RecordingTransformer struct {
	Extensions []string
	Prefix     string
	Suffix     string
	Err        error

	mu    sync.Mutex
	calls int
}

var _ views.Transformer = (*RecordingTransformer)(nil)

// Supports implements views.Transformer.
func (t *RecordingTransformer) Supports(p string) bool {
	ext := path.Ext(p)
	for _, candidate := range t.Extensions {
		if strings.EqualFold(candidate, ext) {
			return true
		}
	}
	return false
}

// Transform implements views.Transformer.
func (t *RecordingTransformer) Transform(text string) (string, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	if t.Err != nil {
		return "", t.Err
	}
	return t.Prefix + text + t.Suffix, nil
}

// Calls reports how many times Transform ran.
func (t *RecordingTransformer) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
