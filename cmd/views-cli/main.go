package main

import (
	"context"
	"os"

	"github.com/goliatone/go-views/internal/cli"
	"github.com/goliatone/go-views/internal/prompt"
)

func main() {
	root := cli.NewRootCmd(cli.Deps{
		Prompt: prompt.NewSurveyDriver(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
