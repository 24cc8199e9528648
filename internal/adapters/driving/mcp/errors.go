// Package mcp provides an MCP (Model Context Protocol) server adapter for findoc.
// It lets AI assistants extract entities from documents and ask questions about them.
package mcp

import "errors"

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("mcp: document service is required")
