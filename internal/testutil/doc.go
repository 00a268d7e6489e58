// Package testutil provides small helpers shared by tests: a fluent
// session builder and a fake clock that records backoff sleeps and fires
// them immediately.
package testutil
