// Package logger defines the logging ports engine components accept.
package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// RunTagger derives child loggers tagged with a candidate run id. The
// engine tags each parallel run so interleaved lines stay attributable.
type RunTagger interface {
	ForRun(runID string) Logger
}
