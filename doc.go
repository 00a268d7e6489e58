// Package convotree manages persistent, branchable conversational
// sessions in front of a remote LLM endpoint. Most applications
// interact with this package by:
//  1. Creating a ConvoTree via New() (optionally overriding the
//     default in-memory store and mock endpoint)
//  2. Opening or creating named sessions
//  3. Asking questions, forking branches and reading usage totals
//
// The façade delegates to conversation.Manager and wraps the endpoint
// in a retrying invoke.Invoker. All defaults are safe for local
// development and testing; production deployments supply a FileStore,
// a real provider endpoint and a structured logger.
package convotree
