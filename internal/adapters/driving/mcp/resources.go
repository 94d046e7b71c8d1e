package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for sercha-mirror resources.
	uriScheme = "sercha-mirror://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "instances",
		Name:        "instances",
		Description: "Configured source instances with their indexer state",
		MIMEType:    "application/json",
	}, s.handleInstancesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "forums/{instanceId}/users/{username}",
		Name:        "forum-user",
		Description: "Public profile and activity summary of a forum user",
		MIMEType:    "application/json",
	}, s.handleUserResource)
}

// handleInstancesResource returns the status of every configured instance.
func (s *Server) handleInstancesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.ports.Indexer.Status(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling instances: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

// handleUserResource returns a forum user's profile.
func (s *Server) handleUserResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Users == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract ids from URI: sercha-mirror://forums/{instanceId}/users/{username}
	instanceID, username := extractUserRef(req.Params.URI)
	if instanceID == "" || username == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	profile, err := s.ports.Users.UserProfile(ctx, instanceID, username)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnknownInstance) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user profile: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling user profile: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

// extractUserRef extracts the instance id and username from a URI like
// sercha-mirror://forums/{instanceId}/users/{username}.
func extractUserRef(uri string) (instanceID, username string) {
	const prefix = uriScheme + "forums/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}
	rest := strings.TrimPrefix(uri, prefix)

	i := strings.LastIndex(rest, "/users/")
	if i <= 0 {
		return "", ""
	}
	return rest[:i], rest[i+len("/users/"):]
}
