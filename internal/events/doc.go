// Package events publishes chain and breaker lifecycle events over NATS.
//
// Publishing is best-effort: events carry operational telemetry, not query
// results, so a failed publish is logged at debug and dropped. When NATS is
// not configured the daemon runs with NoopPublisher and the query path is
// unaffected.
package events
