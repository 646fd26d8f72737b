package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Options controls where and how log lines are written.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // console or json
	File   string // optional rotating log file, in addition to stderr
}

// New builds a zerolog logger from options.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}

	var out io.Writer = os.Stderr
	switch opts.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", opts.Format)
	}

	if opts.File != "" {
		// file output is always JSON, console formatting is for humans only
		fileWriter := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, fileWriter)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// WithContext attaches log to ctx so that zerolog.Ctx(ctx) finds it.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return log.WithContext(ctx)
}

// Component returns a child logger tagged with the component name.
func Component(ctx context.Context, name string) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", name).Logger()
	return &l
}
