package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	Kind  string `json:"kind,omitempty" jsonschema:"which index to search: forum (default) or tracker"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	EntityID   string  `json:"entity_id"`
	EntityType string  `json:"entity_type"`
	InstanceID string  `json:"instance_id"`
	SubjectID  int64   `json:"subject_id"`
	Number     int     `json:"number,omitempty"`
	Title      string  `json:"title,omitempty"`
	Author     string  `json:"author,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content,omitempty"`
}

// RefreshInput is the input schema for the refresh_subject tool.
type RefreshInput struct {
	Instance   string `json:"instance" jsonschema:"source instance id, e.g. magicians or ethereum/pm"`
	Subject    int64  `json:"subject" jsonschema:"topic id or issue number"`
	Page       int    `json:"page,omitempty" jsonschema:"page to refresh (default 1)"`
	PostNumber int    `json:"post_number,omitempty" jsonschema:"refresh the page holding this post number instead of page"`
}

// RefreshOutput is the output schema for the refresh_subject tool.
type RefreshOutput struct {
	Instance string `json:"instance"`
	Subject  int64  `json:"subject"`
	Page     int    `json:"page"`
	Queued   bool   `json:"queued"`
}

// StatusInput is the (empty) input schema for the indexer_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the indexer_status tool.
type StatusOutput struct {
	Instances []driving.InstanceStatus `json:"instances"`
}

// maxContentLength bounds the body text returned per result.
const maxContentLength = 500

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search mirrored forum topics and posts, or tracker issues and comments",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refresh_subject",
		Description: "Queue a topic or issue page for re-indexing; returns once queued",
	}, s.handleRefresh)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "indexer_status",
		Description: "Report queue depth and outcome counters for every source instance",
	}, s.handleStatus)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	kind := domain.KindForum
	if input.Kind != "" {
		kind = domain.SourceKind(input.Kind)
	}

	results, err := s.ports.Search.Search(ctx, kind, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		doc := results[i].Document
		output.Results[i] = SearchResultOutput{
			EntityID:   doc.EntityID,
			EntityType: doc.EntityType,
			InstanceID: doc.InstanceID,
			SubjectID:  doc.SubjectID,
			Number:     doc.Number,
			Title:      doc.Title,
			Author:     doc.Author,
			Score:      results[i].Score,
			Content:    truncate(doc.Body, maxContentLength),
		}
	}

	return nil, output, nil
}

// handleRefresh handles the refresh_subject tool invocation.
func (s *Server) handleRefresh(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RefreshInput,
) (*mcp.CallToolResult, RefreshOutput, error) {
	page := input.Page
	if input.PostNumber > 0 {
		page = domain.PageForPostNumber(input.PostNumber)
	}
	if page < domain.FirstPage {
		page = domain.FirstPage
	}

	if err := s.ports.Indexer.Enqueue(ctx, input.Instance, input.Subject, page); err != nil {
		return nil, RefreshOutput{}, fmt.Errorf("refresh %s/%d: %w", input.Instance, input.Subject, err)
	}

	return nil, RefreshOutput{
		Instance: input.Instance,
		Subject:  input.Subject,
		Page:     page,
		Queued:   true,
	}, nil
}

// handleStatus handles the indexer_status tool invocation.
func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return nil, StatusOutput{Instances: s.ports.Indexer.Status()}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
