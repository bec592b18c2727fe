package views_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-views/pkg/frontmatter"
	"github.com/goliatone/go-views/pkg/testsupport"
	"github.com/goliatone/go-views/pkg/views"
)

func newComposer(t *testing.T, files map[string]string, options ...views.Option) (*views.Composer, *testsupport.MapResources, *testsupport.RecordingExpander) {
	t.Helper()

	resources := testsupport.NewMapResources(files)
	expander := &testsupport.RecordingExpander{}
	composer, err := views.New(resources, expander, options...)
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}
	return composer, resources, expander
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := views.New(nil, &testsupport.RecordingExpander{}); err == nil {
		t.Fatalf("expected error for missing resources")
	}
	if _, err := views.New(testsupport.NewMapResources(nil), nil); err == nil {
		t.Fatalf("expected error for missing expander")
	}
}

func TestRender_WithoutFrontMatter(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"hello.html": "Hello {{ name }}",
	})

	got, err := composer.Render(testsupport.Context(), "hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRender_LayoutSplice(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"page.hbs":          "---\nlayout: main\n---\nHello {{name}}",
		"_layouts/main.hbs": "<html>[[body]]</html>",
	})

	got, err := composer.Render(testsupport.Context(), "page", map[string]any{"name": "World"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<html>Hello World</html>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRender_LayoutCanReferenceBodyVariable(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"page.html":          "---\nlayout: main\n---\nchild",
		"_layouts/main.html": "<main>{{ body }}</main><aside>{{body}}</aside>",
	})

	got, err := composer.Render(testsupport.Context(), "page", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<main>child</main><aside>child</aside>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRender_NestedLayoutChain(t *testing.T) {
	composer, _, expander := newComposer(t, map[string]string{
		"post.md":               "---\nlayout: article\ntitle: Child title\n---\n{{ title }} by {{ author }}",
		"_layouts/article.html": "---\nlayout: base\ntitle: Article default\nsection: blog\n---\n<article data-section=\"{{ section }}\">[[body]]</article>",
		"_layouts/base.html":    "---\nsite: Example\n---\n<title>{{ title }} | {{ site }}</title><body>[[body]]</body>",
	})

	got, err := composer.Render(testsupport.Context(), "post", map[string]any{"author": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := `<title>Child title | Example</title><body><article data-section="blog">Child title by Ada</article></body>`
	if got != want {
		t.Fatalf("output mismatch\nwant: %q\n got: %q", want, got)
	}

	calls := expander.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 expansions, got %d", len(calls))
	}
	baseVars := calls[2].Vars
	wantBase := map[string]any{
		"layout":  "article",
		"title":   "Child title",
		"section": "blog",
		"author":  "Ada",
		"site":    "Example",
		"body":    "[[body]]",
	}
	if diff := cmp.Diff(wantBase, baseVars); diff != "" {
		t.Fatalf("base layout variables mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_CallerLayoutDoesNotCompose(t *testing.T) {
	composer, resources, _ := newComposer(t, map[string]string{
		"plain.html":         "plain {{ layout }}",
		"_layouts/main.html": "<html>[[body]]</html>",
	})

	got, err := composer.Render(testsupport.Context(), "plain", map[string]any{"layout": "main"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "plain main" {
		t.Fatalf("unexpected output %q", got)
	}
	if reads := resources.Reads("_layouts/main.html"); reads != 0 {
		t.Fatalf("layout should not be read, got %d reads", reads)
	}
}

func TestRender_BlankLayoutIsIgnored(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"page.html": "---\nlayout: \"  \"\n---\nbody",
	})

	got, err := composer.Render(testsupport.Context(), "page", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "body" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRender_ChildBodyContainingPlaceholder(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"page.html":          "---\nlayout: main\n---\nliteral [[body]] token",
		"_layouts/main.html": "<div>[[body]]</div>",
	})

	got, err := composer.Render(testsupport.Context(), "page", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<div>literal [[body]] token</div>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRender_MarkupEligibility(t *testing.T) {
	transformer := &testsupport.RecordingTransformer{
		Extensions: []string{".md"},
		Prefix:     "<md>",
		Suffix:     "</md>",
	}
	composer, _, _ := newComposer(t, map[string]string{
		"notes.md":   "# {{ title }}",
		"index.html": "# {{ title }}",
	}, views.WithTransformers(transformer))

	md, err := composer.Render(testsupport.Context(), "notes", map[string]any{"title": "T"})
	if err != nil {
		t.Fatalf("render markdown: %v", err)
	}
	if md != "<md># T</md>" {
		t.Fatalf("markdown output %q", md)
	}

	html, err := composer.Render(testsupport.Context(), "index", map[string]any{"title": "T"})
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if html != "# T" {
		t.Fatalf("html output %q", html)
	}
	if transformer.Calls() != 1 {
		t.Fatalf("expected exactly one transform, got %d", transformer.Calls())
	}
}

func TestRender_TransformHappensBeforeSplice(t *testing.T) {
	transformer := &testsupport.RecordingTransformer{
		Extensions: []string{".md"},
		Prefix:     "<p>",
		Suffix:     "</p>",
	}
	composer, _, _ := newComposer(t, map[string]string{
		"doc.md":             "---\nlayout: main\n---\ntext",
		"_layouts/main.html": "<body>[[body]]</body>",
	}, views.WithTransformers(transformer))

	got, err := composer.Render(testsupport.Context(), "doc", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<body><p>text</p></body>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRender_MissingView(t *testing.T) {
	transformer := &testsupport.RecordingTransformer{Extensions: []string{".md", ".html"}}
	composer, _, expander := newComposer(t, map[string]string{}, views.WithTransformers(transformer))

	_, err := composer.Render(testsupport.Context(), "does/not/exist", map[string]any{})
	if !errors.Is(err, views.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}

	var renderErr *views.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected *RenderError, got %T", err)
	}
	if renderErr.View != "does/not/exist" {
		t.Fatalf("unexpected view %q", renderErr.View)
	}
	if !strings.Contains(err.Error(), "does/not/exist") {
		t.Fatalf("error should name the view: %v", err)
	}
	if len(expander.Calls()) != 0 {
		t.Fatalf("expected no expansions, got %d", len(expander.Calls()))
	}
	if transformer.Calls() != 0 {
		t.Fatalf("expected no transforms, got %d", transformer.Calls())
	}
}

func TestRender_MissingLayout(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"page.html": "---\nlayout: missing\n---\nbody",
	})

	_, err := composer.Render(testsupport.Context(), "page", nil)
	if !errors.Is(err, views.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	var renderErr *views.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected *RenderError, got %T", err)
	}
	if renderErr.View != "_layouts/missing" {
		t.Fatalf("expected failing layout in error, got %q", renderErr.View)
	}
	if diff := cmp.Diff([]string{"page"}, renderErr.Chain); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_CyclicLayouts(t *testing.T) {
	composer, resources, _ := newComposer(t, map[string]string{
		"page.html":       "---\nlayout: a\n---\npage",
		"_layouts/a.html": "---\nlayout: b\n---\nA[[body]]",
		"_layouts/b.html": "---\nlayout: a\n---\nB[[body]]",
	})

	_, err := composer.Render(testsupport.Context(), "page", nil)
	if !errors.Is(err, views.ErrCyclicLayout) {
		t.Fatalf("expected ErrCyclicLayout, got %v", err)
	}

	var renderErr *views.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected *RenderError, got %T", err)
	}
	if diff := cmp.Diff([]string{"page", "_layouts/a", "_layouts/b"}, renderErr.Chain); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(err.Error(), "_layouts/a -> _layouts/b -> _layouts/a") {
		t.Fatalf("error should describe the cycle: %v", err)
	}
	if reads := resources.Reads("_layouts/a.html"); reads != 1 {
		t.Fatalf("cycle should fail before re-reading, got %d reads", reads)
	}
}

func TestRender_SelfReferencingLayout(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"page.html":          "---\nlayout: loop\n---\npage",
		"_layouts/loop.html": "---\nlayout: loop\n---\n[[body]]",
	})

	_, err := composer.Render(testsupport.Context(), "page", nil)
	if !errors.Is(err, views.ErrCyclicLayout) {
		t.Fatalf("expected ErrCyclicLayout, got %v", err)
	}
}

func TestRender_CycleThroughAliasedPath(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"page.html":       "---\nlayout: a\n---\npage",
		"_layouts/a.html": "---\nlayout: a.html\n---\n[[body]]",
	})

	_, err := composer.Render(testsupport.Context(), "page", nil)
	if !errors.Is(err, views.ErrCyclicLayout) {
		t.Fatalf("expected ErrCyclicLayout, got %v", err)
	}
}

func TestRender_FailureKinds(t *testing.T) {
	readCause := errors.New("disk on fire")
	transformCause := errors.New("bad markup")

	tests := []struct {
		name      string
		files     map[string]string
		readErr   error
		transform *testsupport.RecordingTransformer
		kind      error
		cause     error
	}{
		{
			name:    "read failure",
			files:   map[string]string{"page.html": "x"},
			readErr: readCause,
			kind:    views.ErrRead,
			cause:   readCause,
		},
		{
			name:  "front matter failure",
			files: map[string]string{"page.html": "---\nlayout: [oops\n---\nx"},
			kind:  views.ErrFrontMatter,
			cause: frontmatter.ErrInvalidFrontMatter,
		},
		{
			name:  "layout failure is reported for the layout",
			files: map[string]string{"page.html": "---\nlayout: main\n---\nx", "_layouts/main.html": "---\nbroken\n"},
			kind:  views.ErrFrontMatter,
			cause: frontmatter.ErrUnterminated,
		},
		{
			name:  "non string layout",
			files: map[string]string{"page.html": "---\nlayout: 3\n---\nx"},
			kind:  views.ErrFrontMatter,
		},
		{
			name:  "expansion failure",
			files: map[string]string{"page.html": "Hello {{ name"},
			kind:  views.ErrExpansion,
			cause: testsupport.ErrUnclosedTag,
		},
		{
			name:      "transform failure",
			files:     map[string]string{"page.md": "text"},
			transform: &testsupport.RecordingTransformer{Extensions: []string{".md"}, Err: transformCause},
			kind:      views.ErrTransform,
			cause:     transformCause,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resources := testsupport.NewMapResources(tt.files)
			resources.ReadErr = tt.readErr

			var options []views.Option
			if tt.transform != nil {
				options = append(options, views.WithTransformers(tt.transform))
			}
			composer, err := views.New(resources, &testsupport.RecordingExpander{}, options...)
			if err != nil {
				t.Fatalf("new composer: %v", err)
			}

			out, err := composer.Render(testsupport.Context(), "page", nil)
			if err == nil {
				t.Fatalf("expected error, got output %q", out)
			}
			if out != "" {
				t.Fatalf("expected no partial output, got %q", out)
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected kind %v, got %v", tt.kind, err)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Fatalf("expected cause %v, got %v", tt.cause, err)
			}
		})
	}
}

func TestRender_CancelledContext(t *testing.T) {
	composer, resources, _ := newComposer(t, map[string]string{"page.html": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := composer.Render(ctx, "page", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, views.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	var renderErr *views.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected *RenderError, got %T", err)
	}
	if renderErr.View != "page" {
		t.Fatalf("expected view in error, got %q", renderErr.View)
	}
	if resources.Reads("page.html") != 0 {
		t.Fatalf("expected no reads after cancellation")
	}
}

func TestRender_CancelledBetweenLevels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resources := testsupport.NewMapResources(map[string]string{
		"page.html":          "---\nlayout: main\n---\nchild",
		"_layouts/main.html": "<main>[[body]]</main>",
	})
	expander := views.ExpanderFunc(func(content string, _ map[string]any) (string, error) {
		cancel()
		return content, nil
	})
	composer, err := views.New(resources, expander)
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}

	_, err = composer.Render(ctx, "page", nil)
	var renderErr *views.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected *RenderError, got %T (%v)", err, err)
	}
	if !errors.Is(err, context.Canceled) || !errors.Is(err, views.ErrAborted) {
		t.Fatalf("expected aborted render, got %v", err)
	}
	if renderErr.View != "_layouts/main" {
		t.Fatalf("expected layout level in error, got %q", renderErr.View)
	}
	if diff := cmp.Diff([]string{"page"}, renderErr.Chain); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}
	if resources.Reads("_layouts/main.html") != 0 {
		t.Fatalf("expected layout not to be read after cancellation")
	}
}

func TestRender_CustomLayoutsDir(t *testing.T) {
	composer, resources, _ := newComposer(t, map[string]string{
		"page.html":               "---\nlayout: main\n---\nchild",
		"theme/layouts/main.html": "<theme>[[body]]</theme>",
		"_layouts/main.html":      "<default>[[body]]</default>",
	}, views.WithLayoutsDir("/theme/layouts/"))

	got, err := composer.Render(testsupport.Context(), "page", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<theme>child</theme>" {
		t.Fatalf("unexpected output %q", got)
	}
	if resources.Reads("_layouts/main.html") != 0 {
		t.Fatalf("expected default layouts dir to be ignored")
	}

	fallback, _, _ := newComposer(t, map[string]string{
		"page.html":          "---\nlayout: main\n---\nchild",
		"_layouts/main.html": "<default>[[body]]</default>",
	}, views.WithLayoutsDir("  "))
	got, err = fallback.Render(testsupport.Context(), "page", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<default>child</default>" {
		t.Fatalf("expected blank dir to keep the default, got %q", got)
	}
}

func TestRender_LeadingSlashAndDotSegments(t *testing.T) {
	composer, _, _ := newComposer(t, map[string]string{
		"docs/intro.html": "intro",
	})

	for _, id := range []string{"/docs/intro", "docs/./intro", "docs/../docs/intro"} {
		got, err := composer.Render(testsupport.Context(), id, nil)
		if err != nil {
			t.Fatalf("render %q: %v", id, err)
		}
		if got != "intro" {
			t.Fatalf("render %q: unexpected output %q", id, got)
		}
	}
}

func TestRender_ConcurrentCallsAreIndependent(t *testing.T) {
	composer, resources, _ := newComposer(t, map[string]string{
		"page.html":          "---\nlayout: main\n---\n{{ n }}",
		"_layouts/main.html": "[{{ n }}:[[body]]]",
	})

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, err := composer.Render(testsupport.Context(), "page", map[string]any{"n": n})
			if err != nil {
				errs <- err
				return
			}
			if want := fmt.Sprintf("[%d:%d]", n, n); got != want {
				errs <- fmt.Errorf("want %q, got %q", want, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if reads := resources.Reads("page.html"); reads != workers {
		t.Fatalf("expected every render to re-read the template, got %d reads", reads)
	}
}
