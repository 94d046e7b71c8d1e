package mcp

import (
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search capabilities.
	Search driving.SearchService

	// Indexer accepts refresh requests and reports worker state.
	Indexer driving.Indexer

	// Users looks up forum profiles. Optional.
	Users driving.UserService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Indexer == nil {
		return ErrMissingIndexer
	}
	return nil
}
