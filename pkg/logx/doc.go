// Package logx wraps zerolog behind a small Logger facade with
// slog-like Field ergonomics and a Service that can swap sinks and
// levels at runtime (used by config hot-reload).
package logx
