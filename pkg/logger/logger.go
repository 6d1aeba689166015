package logger

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// Options controls how the process-wide logger is built.
type Options struct {
	Level   string
	Format  string
	Service string
}

var base zerolog.Logger

func init() {
	base = build(Options{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: os.Getenv("SERVICE_NAME"),
	})
}

// Init replaces the process-wide logger. Call once at boot, before
// anything logs.
func Init(opts Options) {
	base = build(opts)
}

func build(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if strings.EqualFold(opts.Format, "console") {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	logger = logger.Level(level).With().Timestamp().Logger()
	if opts.Service != "" {
		logger = logger.With().Str("service", opts.Service).Logger()
	}
	return logger
}

// WithFields returns a context carrying the given fields. All log calls
// made with the returned context include them.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logger := fromContext(ctx).With().Fields(fields).Logger()
	return context.WithValue(ctx, ctxKey{}, logger)
}

func fromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return base
	}
	if logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return logger
	}
	return base
}

func Debug(ctx context.Context, msg string, fields map[string]any) {
	l := fromContext(ctx)
	emit(l.Debug(), msg, fields)
}

func Info(ctx context.Context, msg string, fields map[string]any) {
	l := fromContext(ctx)
	emit(l.Info(), msg, fields)
}

func Warn(ctx context.Context, msg string, fields map[string]any) {
	l := fromContext(ctx)
	emit(l.Warn(), msg, fields)
}

func Error(ctx context.Context, msg string, err error, fields map[string]any) {
	l := fromContext(ctx)
	emit(l.Error().Err(err), msg, fields)
}

func emit(ev *zerolog.Event, msg string, fields map[string]any) {
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}
