package pongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-views/pkg/views"
)

// ErrFilterConflict reports a filter name already bound to another function.
var ErrFilterConflict = errors.New("pongo: filter already registered")

var (
	filtersMu    sync.Mutex
	ownedFilters = map[string]uintptr{}
)

// Option configures the expander before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	filters    map[string]pongo2.FilterFunction
	globalData map[string]any
}

// WithBaseDir lets {% include %} and {% extends %} load partials from a
// directory on disk. It is searched before the tree given to WithFS.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS lets {% include %} and {% extends %} load partials from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithFilter registers a pongo2 filter when the expander is built. pongo2
// keeps one filter table per process, so every expander sees it. New fails
// with ErrFilterConflict when name is already taken by a different function,
// including pongo2's builtins; repeating the same function is a no-op.
func WithFilter(name string, fn pongo2.FilterFunction) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || fn == nil {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]pongo2.FilterFunction)
		}
		cfg.filters[trimmed] = fn
	}
}

// WithGlobalData seeds values visible to every expansion. Per-call variables
// shadow globals with the same key.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// Expander implements views.Expander with a pongo2 template set.
type Expander struct {
	mu          sync.RWMutex
	templateSet *pongo2.TemplateSet
}

var _ views.Expander = (*Expander)(nil)

// New constructs an Expander using the provided options.
func New(options ...Option) (*Expander, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		info, err := os.Stat(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: base dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("pongo: base dir %s is not a directory", cfg.baseDir)
		}
		loaders = append(loaders, pongo2.NewFSLoader(os.DirFS(cfg.baseDir)))
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	if len(loaders) == 0 {
		loaders = append(loaders, pongo2.MustNewLocalFileSystemLoader(""))
	}

	e := &Expander{
		templateSet: pongo2.NewSet("views", loaders...),
	}
	registerDefaultFilters()

	for name, fn := range cfg.filters {
		if err := registerOwnedFilter(name, fn); err != nil {
			return nil, err
		}
	}
	if err := e.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("pongo: apply global data: %w", err)
	}
	return e, nil
}

// Expand implements views.Expander. Templates are parsed on every call.
func (e *Expander) Expand(content string, vars map[string]any) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: expander is nil")
	}

	tmpl, err := e.templateSet.FromString(content)
	if err != nil {
		return "", fmt.Errorf("pongo: parse template: %w", err)
	}

	viewContext, err := convertToContext(vars)
	if err != nil {
		return "", fmt.Errorf("pongo: convert data: %w", err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("pongo: execute template: %w", err)
	}
	return buf.String(), nil
}

// RegisterFilter adapts a plain function into a pongo2 filter. The filter is
// process-wide and registering an existing name fails.
func (e *Expander) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

// GlobalContext merges data into the globals visible to every expansion.
func (e *Expander) GlobalContext(data map[string]any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("pongo: expander is nil")
	}
	if len(data) == 0 {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

func registerOwnedFilter(name string, fn pongo2.FilterFunction) error {
	filtersMu.Lock()
	defer filtersMu.Unlock()

	ptr := reflect.ValueOf(fn).Pointer()
	if owned, ok := ownedFilters[name]; ok {
		if owned == ptr {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrFilterConflict, name)
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("%w: %q", ErrFilterConflict, name)
	}
	if err := pongo2.RegisterFilter(name, fn); err != nil {
		return fmt.Errorf("pongo: register filter %q: %w", name, err)
	}
	ownedFilters[name] = ptr
	return nil
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

func convertToContext(in map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

// convertValue normalises nested values to JSON-shaped maps and slices so
// templates can index YAML front matter and Go structs uniformly.
func convertValue(value any) (any, error) {
	if value == nil || isCallable(value) {
		return value, nil
	}

	switch v := value.(type) {
	case string, bool, int, int64, float64:
		return v, nil
	case map[string]any:
		return convertMap(v)
	case map[any]any:
		keyed := make(map[string]any, len(v))
		for key, item := range v {
			keyed[fmt.Sprint(key)] = item
		}
		return convertMap(keyed)
	case []any:
		return convertSlice(v)
	default:
		raw, err := jsonToAny(v)
		if err != nil {
			return nil, err
		}
		switch decoded := raw.(type) {
		case map[string]any:
			return convertMap(decoded)
		case []any:
			return convertSlice(decoded)
		default:
			return decoded, nil
		}
	}
}

func convertMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertSlice(in []any) ([]any, error) {
	out := make([]any, 0, len(in))
	for _, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func jsonToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func registerDefaultFilters() {
	if !pongo2.FilterExists("trim") {
		_ = pongo2.RegisterFilter("trim", filterTrim)
	}
	if !pongo2.FilterExists("lowerfirst") {
		_ = pongo2.RegisterFilter("lowerfirst", filterLowerFirst)
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	t := in.String()

	for i, r := range t {
		if strings.ContainsRune(" \t\n\r", r) {
			continue
		}
		size := utf8.RuneLen(r)
		return pongo2.AsValue(t[:i] + strings.ToLower(string(r)) + t[i+size:]), nil
	}
	return pongo2.AsValue(t), nil
}
