package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// FileOptions enables a rotating log file next to the primary output.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Options configure New.
type Options struct {
	Level   string
	Format  string
	Output  io.Writer
	File    FileOptions
	Service string
	Version string
	Env     string

	// SentryEnabled forwards records at SentryLevel and above to Sentry.
	// sentry.Init must have been called by the caller.
	SentryEnabled bool
	SentryLevel   string
}

// New builds the process logger. The returned LevelVar can be changed at runtime.
func New(opts Options) (*slog.Logger, *slog.LevelVar, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.File.Path != "" {
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
		})
	}

	handlerOpts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", FormatJSON:
		handler = slog.NewJSONHandler(out, handlerOpts)
	case FormatText:
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		return nil, nil, fmt.Errorf("logger: unsupported format %q", opts.Format)
	}

	if opts.SentryEnabled {
		sentryLevel, err := ParseLevel(opts.SentryLevel)
		if err != nil {
			return nil, nil, err
		}
		handler = newTeeHandler(handler, slogsentry.Option{Level: sentryLevel}.NewSentryHandler())
	}

	handler = NewMaskingHandler(newContextHandler(handler))

	log := slog.New(handler)
	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	if opts.Env != "" {
		log = log.With("env", opts.Env)
	}

	return log, levelVar, nil
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty means info.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", raw)
	}
}
