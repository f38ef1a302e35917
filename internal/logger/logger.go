package logger

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	log  zerolog.Logger //nolint:gochecknoglobals //package singleton
	once sync.Once      //nolint:gochecknoglobals //package singleton
)

// Get returns the process logger. The first call decides the level:
// Get(true) enables debug output, after that the argument is ignored.
func Get(debug ...bool) zerolog.Logger {
	once.Do(func() {
		level := zerolog.InfoLevel
		if len(debug) > 0 && debug[0] {
			level = zerolog.DebugLevel
		}
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log = zerolog.New(out).Level(level).With().Timestamp().Logger()
	})
	return log
}
