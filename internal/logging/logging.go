// ABOUTME: Diagnostic logger setup for the clenv binary
// ABOUTME: Configures the global zerolog logger from the --verbose and --log-format flags
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Formats accepted by Init
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config controls logger initialization.
type Config struct {
	Format string    // "json", "console", or "auto"
	Level  string    // "debug", "info", "warn", "error"; empty means warn
	Out    io.Writer // defaults to os.Stderr
}

var isTerminalFn = term.IsTerminal

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Init configures the global zerolog logger
func Init(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	writer, err := selectWriter(cfg.Format, out)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	return nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "warn", "warning":
		return zerolog.WarnLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("invalid log level %q", level)
}

func selectWriter(format string, out io.Writer) (io.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatConsole:
		return newConsoleWriter(out), nil
	case FormatJSON:
		return out, nil
	case FormatAuto, "":
		if isTerminal(out) {
			return newConsoleWriter(out), nil
		}
		return out, nil
	}
	return nil, fmt.Errorf("invalid log format %q (want auto, console or json)", format)
}

func newConsoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isTerminalFn(int(f.Fd()))
}
