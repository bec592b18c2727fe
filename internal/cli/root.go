// Package cli implements the views-cli commands.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-views/internal/prompt"
)

// Deps carries the collaborators commands need, so tests can swap them.
type Deps struct {
	Prompt prompt.Driver
	Stdout io.Writer
	Stderr io.Writer
}

type globalFlags struct {
	root    string
	verbose bool
}

// NewRootCmd builds the views-cli command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Prompt == nil {
		deps.Prompt = prompt.NewSurveyDriver()
	}

	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "views-cli",
		Short: "Render templates with front matter and layouts",
		Long: `views-cli renders view templates from a directory.

Templates may start with a YAML front matter block. A "layout" key wraps the
rendered view in _layouts/<name>, which receives the child output wherever it
contains [[body]]. Markdown views (.md, .markdown) are converted to HTML
before they are wrapped.`,
		SilenceUsage: true,
	}
	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVarP(&flags.root, "root", "r", ".", "template root directory")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log render steps to stderr")

	cmd.AddCommand(newRenderCmd(deps, flags))
	cmd.AddCommand(newListCmd(deps, flags))
	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
