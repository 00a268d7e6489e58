// Package core holds the domain contracts of convotree: the Session entity
// with its prompt-id sequencing and context-window selection, the validated
// Message record, branch lineage metadata, the SessionStore / Endpoint /
// DocumentStore / Clock interfaces and the error taxonomy shared by all
// other packages.
//
// Keeping the contracts here lets higher level packages (conversation,
// invoke, usage) depend on interfaces while concrete storage and provider
// adapters live in their own packages; only the wiring layer decides which
// implementation to instantiate.
package core
