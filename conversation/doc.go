// Package conversation orchestrates the session lifecycle and the ask
// flow: create or recover sessions by name, select the context window,
// invoke the endpoint, account usage and persist the new pair. Branch
// operations (forking a session, listing the branch tree) live here
// too.
package conversation
