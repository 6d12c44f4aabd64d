// Package log builds the application's slog loggers. The TruncateHandler
// wrapper keeps page bodies and other oversized attribute values from
// flooding log output: crawl code can log whole responses at debug level
// without producing megabyte log lines.
package log
