// Package cli implements the mcpgen command line: listing, generating,
// calling, searching, and running tools against MCP servers.
package cli

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
)

var logger zerolog.Logger

// Run parses args and dispatches to the selected command.
func Run(args []string) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.Default)
	parser.CommandHandler = func(command flags.Commander, rest []string) error {
		logger = newLogger(options.Verbose)
		return command.Execute(rest)
	}
	_, err := parser.ParseArgs(args)
	return err
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
