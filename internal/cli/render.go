package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	views "github.com/goliatone/go-views"
	"github.com/goliatone/go-views/internal/prompt"
	"github.com/goliatone/go-views/pkg/expand"
	"github.com/goliatone/go-views/pkg/expand/pongo"
	"github.com/goliatone/go-views/pkg/markup/markdown"
)

type renderFlags struct {
	varsFile    string
	sets        []string
	ask         []string
	output      string
	engine      string
	sanitize    bool
	safe        bool
	partials    string
	markdownExt []string
	interactive bool
}

var markdownExtensions = map[string]goldmark.Extender{
	"footnote":    extension.Footnote,
	"deflist":     extension.DefinitionList,
	"typographer": extension.Typographer,
}

func newRenderCmd(deps Deps, global *globalFlags) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [view]",
		Short: "Render a view and its layouts",
		Long: `Render a view identifier (for example "blog/post") found under --root.

Variables come from --vars (YAML or JSON), then --set key=value pairs, then
--ask prompts for any key still missing. Caller variables override the
view's front matter defaults.`,
		Example: `  views-cli render page --set name=World
  views-cli render blog/post -f vars.yaml -o out/post.html
  views-cli render -i --ask title`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(deps.Stderr, global.verbose)
			return runRender(cmd, deps, global, flags, logger, args)
		},
	}

	cmd.Flags().StringVarP(&flags.varsFile, "vars", "f", "", "YAML or JSON file with template variables")
	cmd.Flags().StringArrayVarP(&flags.sets, "set", "s", nil, "set a variable (key=value), repeatable")
	cmd.Flags().StringSliceVar(&flags.ask, "ask", nil, "prompt for these variables when not already set")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&flags.engine, "engine", expand.Pongo, "expansion engine: "+strings.Join(expand.Default().List(), " or "))
	cmd.Flags().BoolVar(&flags.sanitize, "sanitize", false, "sanitize Markdown output with the UGC policy")
	cmd.Flags().BoolVar(&flags.safe, "safe", false, "drop raw HTML found in Markdown views instead of passing it through")
	cmd.Flags().StringVar(&flags.partials, "partials", "", "extra directory searched by {% include %} before --root (pongo engine)")
	cmd.Flags().StringSliceVar(&flags.markdownExt, "markdown-ext", nil, "extra Markdown extensions: "+strings.Join(markdownExtensionNames(), ", "))
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "pick the view from a list when none is given")
	return cmd
}

func runRender(cmd *cobra.Command, deps Deps, global *globalFlags, flags *renderFlags, logger *slog.Logger, args []string) error {
	ctx := cmd.Context()

	vars, err := loadVars(flags.varsFile)
	if err != nil {
		return err
	}
	if err := applySets(vars, flags.sets); err != nil {
		return err
	}

	view, err := chooseView(cmd, deps, global, flags, args)
	if err != nil {
		return err
	}

	for _, key := range flags.ask {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := vars[key]; ok {
			continue
		}
		answer, err := deps.Prompt.Input(ctx, prompt.InputConfig{Message: fmt.Sprintf("Value for %q", key)})
		if err != nil {
			return err
		}
		vars[key] = parseScalar(answer)
	}

	composer, err := buildComposer(global.root, flags, logger)
	if err != nil {
		return err
	}

	out, err := composer.Render(ctx, view, vars)
	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err := fmt.Fprint(deps.Stdout, out)
		return err
	}
	if dir := filepath.Dir(flags.output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cli: create output dir: %w", err)
		}
	}
	if err := os.WriteFile(flags.output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("cli: write output: %w", err)
	}
	logger.Info("view written", "view", view, "output", flags.output)
	return nil
}

func chooseView(cmd *cobra.Command, deps Deps, global *globalFlags, flags *renderFlags, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !flags.interactive {
		return "", errors.New("cli: view is required (pass one or use --interactive)")
	}

	ids, err := listViews(global.root)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("cli: no views found under %s", global.root)
	}
	idx, err := deps.Prompt.Select(cmd.Context(), prompt.SelectConfig{
		Message:  "View to render",
		Options:  ids,
		PageSize: 15,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(ids) {
		return "", errors.New("cli: no view selected")
	}
	return ids[idx], nil
}

func buildComposer(root string, flags *renderFlags, logger *slog.Logger) (*views.Composer, error) {
	options := []views.Option{
		views.WithLogger(logger),
		views.WithEngine(flags.engine),
	}

	if flags.partials != "" {
		options = append(options, views.WithPongoOptions(pongo.WithBaseDir(flags.partials)))
	}

	var markdownOptions []markdown.Option
	if flags.safe {
		markdownOptions = append(markdownOptions, markdown.WithoutRawHTML())
	}
	if flags.sanitize {
		markdownOptions = append(markdownOptions, markdown.WithUGCSanitizer())
	}
	for _, name := range flags.markdownExt {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		ext, ok := markdownExtensions[name]
		if !ok {
			return nil, fmt.Errorf("cli: unknown markdown extension %q (want one of %s)", name, strings.Join(markdownExtensionNames(), ", "))
		}
		markdownOptions = append(markdownOptions, markdown.WithGoldmarkExtensions(ext))
	}
	options = append(options, views.WithMarkdownOptions(markdownOptions...))

	return views.NewDir(root, options...)
}

func markdownExtensionNames() []string {
	names := make([]string, 0, len(markdownExtensions))
	for name := range markdownExtensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
