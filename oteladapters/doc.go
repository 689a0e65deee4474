// Package oteladapters connects the lending observability interfaces to OpenTelemetry.
//
// MetricsCollector turns durations, counters and values into otel instruments created on first use.
// SlogBridgeLogger sends log records through the otelslog bridge so they carry trace correlation
// when a LoggerProvider is installed.
package oteladapters
