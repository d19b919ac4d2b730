// Package observe wires OpenTelemetry tracing and metrics together with a
// structured JSON logger for provider call instrumentation. Construct an
// Observer from Config, then use Middleware to wrap outbound calls with a
// span, duration metrics, and a log line per call.
package observe
