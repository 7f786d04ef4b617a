// Package logging configures pactopt's structured logger, following the
// zerolog setup convention used throughout the retrieval pack's cmd trees.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures Setup.
type Options struct {
	Level   string // zerolog level name; "" means info
	Console bool   // human-readable console output instead of JSON
}

// Setup installs the global zerolog logger used by the CLI and the
// optimizer's collaborator defaults, returning a component-scoped logger
// for the caller's own use.
func Setup(component string, opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Logger{}, err
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)

	if opts.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return log.With().Str("component", component).Logger(), nil
}
