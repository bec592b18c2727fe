package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	delimiter   = "---"
	documentEnd = "..."
	byteOrder   = "\ufeff"
)

var (
	// ErrInvalidFrontMatter is wrapped by every parse failure.
	ErrInvalidFrontMatter = errors.New("frontmatter: invalid front matter")
	// ErrUnterminated reports an opening delimiter without a closing one.
	ErrUnterminated = errors.New("frontmatter: block is not terminated")
)

// Document holds the decoded metadata block and the remaining body.
type Document struct {
	Variables map[string]any
	Content   string
}

// HasVariable reports whether the metadata block declared key.
func (d Document) HasVariable(key string) bool {
	_, ok := d.Variables[key]
	return ok
}

// Parse splits raw into its metadata block and content.
func Parse(raw []byte) (Document, error) {
	return ParseString(string(raw))
}

// ParseString is Parse for string sources.
func ParseString(raw string) (Document, error) {
	source := strings.TrimPrefix(raw, byteOrder)

	first, rest, found := strings.Cut(source, "\n")
	if !isDelimiter(first, delimiter) {
		return Document{Variables: map[string]any{}, Content: raw}, nil
	}
	if !found {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidFrontMatter, ErrUnterminated)
	}

	block, content, err := split(rest)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
	}

	vars, err := decode(block)
	if err != nil {
		return Document{}, err
	}
	return Document{Variables: vars, Content: content}, nil
}

func split(source string) (string, string, error) {
	pos := 0
	for pos < len(source) {
		line := source[pos:]
		next := len(source)
		if end := strings.IndexByte(line, '\n'); end >= 0 {
			line = line[:end]
			next = pos + end + 1
		}
		if isDelimiter(line, delimiter) || isDelimiter(line, documentEnd) {
			return source[:pos], source[next:], nil
		}
		pos = next
	}
	return "", "", ErrUnterminated
}

func decode(block string) (map[string]any, error) {
	vars := map[string]any{}
	if strings.TrimSpace(block) == "" {
		return vars, nil
	}
	if err := yaml.Unmarshal([]byte(block), &vars); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
	}
	if vars == nil {
		vars = map[string]any{}
	}
	for key, value := range vars {
		vars[key] = normalize(value)
	}
	return vars, nil
}

// normalize rewrites mappings with non-string keys, which yaml.v3 decodes as
// map[any]any, into map[string]any so nested front matter has one shape.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = normalize(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	default:
		return value
	}
}

func isDelimiter(line, marker string) bool {
	return strings.TrimRight(line, " \t\r") == marker
}
