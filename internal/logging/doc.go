// Package logging wraps Zap with context-aware, redacting, sampled loggers
// for the queryd daemon.
//
// Every log method takes a context first; correlation fields (trace and span
// IDs, session ID, request ID, operation key) stored in the context are
// appended to each entry automatically:
//
//	ctx = logging.WithRequestID(ctx, requestID)
//	log.Info(ctx, "query routed", zap.String("provider", name))
//
// Output goes to stdout, to an OpenTelemetry log provider, or both. Errors
// and above are never sampled; lower levels are sampled once volume passes
// the configured threshold. A redacting encoder keeps API keys and other
// credentials out of emitted entries regardless of call sites.
//
// TraceLevel sits below Debug for wire-level detail that production filters
// out.
package logging
