// Package log is a thin wrapper around [log/slog] with a Trace level
// below Debug, text and JSON encodings, and an optional colorized
// pretty mode for reading by humans rather than collectors.
//
// A Logger is configured once, at construction:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText))
//
// The zero value is a valid logger that discards everything, so types
// can hold a Logger unconditionally and leave it unset:
//
//	var l log.Logger
//	l.Trace("never written")
//
// Loggers are immutable and safe for concurrent use. [Logger.With]
// derives a logger that attaches fixed attributes to every record.
package log
