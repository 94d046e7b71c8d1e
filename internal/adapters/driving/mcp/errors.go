// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-mirror.
// It lets assistants search mirrored forum and tracker content, request
// re-indexing of a subject, and inspect indexer state.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingIndexer is returned when the indexer is not provided.
	ErrMissingIndexer = errors.New("mcp: indexer is required")
)
