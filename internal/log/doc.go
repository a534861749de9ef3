// Package log provides the application logger, built on top of the
// standard slog package.
//
// SecureHandler wraps any slog.Handler and sanitizes attributes before
// they are written:
//   - Values of sensitive keys (dsn, cookie, password, token) are masked
//   - Passwords inside connection strings are masked in place, so
//     postgres://app:secret@db/reviews logs as
//     postgres://app:***REDACTED***@db/reviews
//   - Google consent cookies are masked
//   - Long strings such as review texts are cut to DefaultMaxValueLen runes
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Info("loading raw reviews", "dsn", dsn) // dsn=***REDACTED***
package log
