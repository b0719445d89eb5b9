package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON is for production log aggregation.
	FormatJSON Format = "json"
	// FormatText is for human-readable development output.
	FormatText Format = "text"
)

// Config is the environment-driven logger configuration.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`   // debug, info, warn, error
	Format Format `env:"LOG_FORMAT" envDefault:"json"`  // json or text
	Source string `env:"APP_NAME" envDefault:"fusegigs"` // service attribute on every record
}

// Option configures logger creation.
type Option func(*settings)

type settings struct {
	level  slog.Level
	format Format
	output io.Writer
	attrs  []slog.Attr
}

// WithLevel sets the minimum record level.
func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithFormat sets the output encoding.
func WithFormat(f Format) Option {
	return func(s *settings) { s.format = f }
}

// WithOutput redirects log output; nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithAttr attaches static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(s *settings) { s.attrs = append(s.attrs, attrs...) }
}

// New builds a slog.Logger. Defaults are production-safe: JSON at info level
// on stdout.
func New(opts ...Option) *slog.Logger {
	s := &settings{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	var handler slog.Handler
	if s.format == FormatText {
		handler = slog.NewTextHandler(s.output, &slog.HandlerOptions{Level: s.level})
	} else {
		handler = slog.NewJSONHandler(s.output, &slog.HandlerOptions{Level: s.level})
	}
	if len(s.attrs) > 0 {
		handler = handler.WithAttrs(s.attrs)
	}

	return slog.New(handler)
}

// NewFromConfig builds a logger from environment configuration.
func NewFromConfig(cfg Config, opts ...Option) *slog.Logger {
	base := []Option{
		WithLevel(parseLevel(cfg.Level)),
		WithFormat(parseFormat(cfg.Format)),
		WithAttr(slog.String("service", cfg.Source)),
	}
	return New(append(base, opts...)...)
}

// SetAsDefault installs l as the process-wide default logger.
func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseFormat(f Format) Format {
	if f == FormatText {
		return FormatText
	}
	return FormatJSON
}
