package views

import (
	"io"
	"log/slog"
	"strings"
)

// Option configures a Composer.
type Option func(*config)

type config struct {
	transformers []Transformer
	logger       *slog.Logger
	layoutsDir   string
}

// WithTransformers registers markup transformers. For each rendered path the
// first transformer whose Supports returns true is applied.
func WithTransformers(transformers ...Transformer) Option {
	return func(cfg *config) {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			cfg.transformers = append(cfg.transformers, t)
		}
	}
}

// WithLogger sets the logger used for debug tracing of the render pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithLayoutsDir overrides the directory layout names resolve against.
func WithLayoutsDir(dir string) Option {
	return func(cfg *config) {
		trimmed := strings.Trim(strings.TrimSpace(dir), "/")
		if trimmed == "" {
			return
		}
		cfg.layoutsDir = trimmed
	}
}

func defaultConfig() *config {
	return &config{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		layoutsDir: DefaultLayoutsDir,
	}
}
