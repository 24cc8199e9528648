package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme prefixes every findoc resource URI.
const uriScheme = "findoc://"

// historyTurns bounds the turns returned by the session history resource.
const historyTurns = 50

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Documents loaded in this server",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/entities",
		Name:        "document-entities",
		Description: "Entities extracted from a document",
		MIMEType:    "application/json",
	}, s.handleEntitiesResource)

	if s.ports.Ask != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "sessions/{sessionId}/history",
			Name:        "session-history",
			Description: "Questions and answers of a conversation",
			MIMEType:    "application/json",
		}, s.handleHistoryResource)
	}
}

// handleDocumentsResource lists loaded documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Format string `json:"format"`
		Chars  int    `json:"chars"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:     docs[i].ID,
			Name:   docs[i].Name,
			Format: docs[i].Format.String(),
			Chars:  len(docs[i].Content),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleEntitiesResource returns the entities of one document.
func (s *Server) handleEntitiesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractID(req.Params.URI, "documents/", "/entities")
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entities, err := s.ports.Document.Entities(ctx, docID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, entities)
}

// handleHistoryResource returns the recent turns of a session.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessionID := extractID(req.Params.URI, "sessions/", "/history")
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	turns, err := s.ports.Ask.History(ctx, sessionID, historyTurns)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, turns)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractID returns the single path segment between prefix and suffix of
// a findoc URI, e.g. findoc://documents/{id}/entities.
func extractID(uri, prefix, suffix string) string {
	rest, ok := strings.CutPrefix(uri, uriScheme+prefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, suffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
