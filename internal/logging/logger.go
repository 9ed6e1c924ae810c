package logging

import (
	"io"
	"log/slog"
	"os"
)

// Option configures New.
type Option func(*options)

type options struct {
	out  io.Writer
	json bool
}

// WithOutput redirects log output. The default is Stderr, which keeps Stdout
// free for rendered documents and plans.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches to the JSON handler, used by the long-running server.
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// New creates a configured application logger.
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level, opts ...Option) *slog.Logger {
	o := options{out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}

	if o.json {
		return slog.New(slog.NewJSONHandler(o.out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(o.out, handlerOpts))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
