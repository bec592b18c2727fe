package resources

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-views/pkg/views"
)

// DefaultExtensions lists the template extensions tried by Resolve, in order.
var DefaultExtensions = []string{".html", ".hbs", ".tpl", ".md", ".markdown", ".txt", ".xml", ".json"}

const indexName = "index"

// Option configures an FS resolver.
type Option func(*config)

type config struct {
	extensions []string
	hidden     []string
}

// WithExtensions replaces the extensions tried by Resolve.
func WithExtensions(exts ...string) Option {
	return func(cfg *config) {
		cfg.extensions = cfg.extensions[:0]
		for _, ext := range exts {
			trimmed := strings.TrimSpace(ext)
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

// WithHiddenDirs names directories excluded from Views, in addition to
// those whose name starts with "." or "_" (layouts, partials).
func WithHiddenDirs(dirs ...string) Option {
	return func(cfg *config) {
		cfg.hidden = append(cfg.hidden, dirs...)
	}
}

// FS implements views.Resources on top of an fs.FS.
type FS struct {
	files      fs.FS
	extensions []string
	hidden     map[string]struct{}
}

var _ views.Resources = (*FS)(nil)

// New constructs an FS resolver rooted at files.
func New(files fs.FS, options ...Option) (*FS, error) {
	if files == nil {
		return nil, errors.New("resources: fs is nil")
	}

	cfg := &config{
		extensions: append([]string(nil), DefaultExtensions...),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	hidden := make(map[string]struct{}, len(cfg.hidden))
	for _, dir := range cfg.hidden {
		if trimmed := strings.Trim(strings.TrimSpace(dir), "/"); trimmed != "" {
			hidden[trimmed] = struct{}{}
		}
	}

	return &FS{
		files:      files,
		extensions: cfg.extensions,
		hidden:     hidden,
	}, nil
}

// Dir constructs an FS resolver over a directory on disk.
func Dir(root string, options ...Option) (*FS, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, errors.New("resources: root directory is required")
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resources: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resources: %s is not a directory", trimmed)
	}
	return New(os.DirFS(trimmed), options...)
}

// Resolve implements views.Resources.
func (r *FS) Resolve(uri string) (string, bool) {
	name := strings.Trim(strings.TrimSpace(uri), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", false
	}

	if name != "." {
		if r.isFile(name) {
			return name, true
		}
		for _, ext := range r.extensions {
			if candidate := name + ext; r.isFile(candidate) {
				return candidate, true
			}
		}
	}

	if r.isDir(name) {
		for _, ext := range r.extensions {
			if candidate := path.Join(name, indexName+ext); r.isFile(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// Read implements views.Resources.
func (r *FS) Read(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	data, err := fs.ReadFile(r.files, name)
	if err != nil {
		return nil, fmt.Errorf("resources: read %s: %w", name, err)
	}
	return data, nil
}

// Views lists the identifiers of every renderable template, sorted.
// Directories starting with "." or "_" are skipped.
func (r *FS) Views() ([]string, error) {
	seen := make(map[string]struct{})
	err := fs.WalkDir(r.files, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if p != "." && r.skipDir(p) {
				return fs.SkipDir
			}
			return nil
		}
		ext := path.Ext(p)
		if !r.knownExtension(ext) {
			return nil
		}
		id := strings.TrimSuffix(p, ext)
		if path.Base(id) == indexName {
			id = path.Dir(id)
			if id == "." {
				id = indexName
			}
		}
		seen[id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resources: walk templates: %w", err)
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (r *FS) skipDir(p string) bool {
	if base := path.Base(p); strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") {
		return true
	}
	_, hidden := r.hidden[p]
	return hidden
}

func (r *FS) knownExtension(ext string) bool {
	for _, candidate := range r.extensions {
		if candidate == ext {
			return true
		}
	}
	return false
}

func (r *FS) isFile(name string) bool {
	info, err := fs.Stat(r.files, name)
	return err == nil && info.Mode().IsRegular()
}

func (r *FS) isDir(name string) bool {
	info, err := fs.Stat(r.files, name)
	return err == nil && info.IsDir()
}
