// Package observability provides structured logging and OpenTelemetry metrics
// for the content gateway.
//
// This package implements:
//   - zap logger construction from level/format settings
//   - Provider attempt, latency and retry instruments
//   - Generation outcome counters for the fallback loop
package observability
