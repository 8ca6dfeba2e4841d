package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger writing to stderr: colored console output when pretty,
// JSON with UNIX timestamps otherwise. Unknown levels fall back to info.
func New(level string, pretty bool) *zerolog.Logger {
	return NewWithWriter(os.Stderr, level, pretty)
}

func NewWithWriter(w io.Writer, level string, pretty bool) *zerolog.Logger {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid log level %q; defaulting to 'info'\n", level)
		} else {
			lvl = parsed
		}
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &zl
}
