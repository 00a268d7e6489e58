// Package invoke wraps a core.Endpoint with classified retries.
//
// Transient failures (rate limits, overload) are retried with
// exponential backoff and additive jitter; fatal failures surface
// immediately. Sleeps go through core.Clock so tests run instantly,
// and context cancellation is honored during backoff.
package invoke
