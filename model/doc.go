// Package model contains core.Endpoint adapters for LLM providers.
//
// Provider-specific adapters live in subpackages (model/anthropic,
// model/openai) so their SDK dependencies stay out of consumers that
// only need the MockEndpoint.
package model
