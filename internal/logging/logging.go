// Package logging builds the process slog handler: a console sink at the
// configured level and an optional debug file sink.
package logging

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options describe the sinks to build.
type Options struct {
	Level     slog.Level
	Format    string
	AddSource bool
	// File enables a debug level file sink when non-empty.
	File string
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// NewHandler returns the console handler on console, fanned out to a rotated
// debug file when o.File is set. The returned closer releases the file.
func NewHandler(console io.Writer, o Options) (slog.Handler, io.Closer) {
	h := newHandler(console, o.Format, &slog.HandlerOptions{Level: o.Level, AddSource: o.AddSource})
	if o.File == "" {
		return h, io.NopCloser(nil)
	}
	file := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     28,
	}
	fh := newHandler(file, o.Format, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true})
	return slogmulti.Fanout(h, fh), file
}
