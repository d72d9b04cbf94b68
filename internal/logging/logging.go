package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/ecszerolog"
)

var setupOnce sync.Once

// New builds a logger writing to w in the given format.
func New(w io.Writer, format, app string) (zerolog.Logger, error) {
	var base zerolog.Logger
	switch format {
	case "console":
		base = zerolog.New(zerolog.ConsoleWriter{Out: w})
	case "json":
		base = zerolog.New(w)
	case "ecs":
		base = ecszerolog.New(w)
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}
	return base.With().Str("app", app).Timestamp().Logger(), nil
}

// Setup installs the process-wide logger. Only the first call has effect.
func Setup(level, format, app string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger, err := New(os.Stdout, format, app)
	if err != nil {
		return err
	}

	setupOnce.Do(func() {
		zerolog.SetGlobalLevel(lvl)
		log.Logger = logger
	})
	return nil
}
