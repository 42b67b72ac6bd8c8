// Package log provides logging helpers built on top of the standard slog
// package.
//
// The TidyHandler wraps any slog.Handler and:
//   - Truncates long string values, such as LaTeX source lines logged while
//     debugging the scanner
//   - Writes paths under the user's home directory as "~/..." so logs can be
//     shared without exposing account names
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("environment skipped", "open", line, "document", path)
package log
