// Package assistant orchestrates query handling: scrub, assess, then
// route through the kind's provider chain under circuit breaker
// protection.
//
// Each assistant kind owns one long-lived breaker keyed "assistant:<kind>"
// in a shared registry. Chain exhaustion counts against the breaker but
// still answers the caller with the fallback reply; overload and open
// rejections surface as typed errors for the transport layer to render.
package assistant
