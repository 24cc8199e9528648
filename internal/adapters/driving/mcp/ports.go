package mcp

import (
	"github.com/custodia-labs/findoc/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Document ingests documents and serves extracted entities.
	Document driving.DocumentService

	// Ask answers questions. The ask_document tool is only offered when set.
	Ask driving.AskService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
