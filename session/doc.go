// Package session houses concrete implementations of core.SessionStore.
// The interface itself (and the Session struct) live in the core package to
// centralize domain contracts; keeping only implementations here prevents
// higher level packages (conversation, usage) from depending on concrete
// storage.
//
// FileStore is the durable default: one JSON document per session id with
// ISO-8601 timestamps and scan-based name resolution. InMemoryStore backs
// tests and ephemeral demos. Additional backends (SQLite, Redis, ...) can
// be added here without changing any calling code.
package session
