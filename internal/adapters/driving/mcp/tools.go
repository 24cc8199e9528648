package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// ExtractInput is the input schema for the extract_entities tool.
// Exactly one of Path, Text and ContentBase64 must be set.
type ExtractInput struct {
	Path          string `json:"path,omitempty" jsonschema:"path of a local PDF, DOCX, XLSX, Markdown or text file"`
	Text          string `json:"text,omitempty" jsonschema:"plain text of the document"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64 encoded file bytes"`
	Name          string `json:"name,omitempty" jsonschema:"file name used to detect the format of content_base64"`
	Format        string `json:"format,omitempty" jsonschema:"declared format: pdf, docx, xlsx, markdown or text"`
}

// ExtractOutput is the output schema for the extract_entities tool.
type ExtractOutput struct {
	DocumentID string         `json:"document_id"`
	Name       string         `json:"name,omitempty"`
	Format     string         `json:"format"`
	Entities   []EntityOutput `json:"entities"`
	ChunkCount int            `json:"chunk_count"`
	Indexed    bool           `json:"indexed"`
}

// EntityOutput is a single extracted entity.
type EntityOutput struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Raw        string  `json:"raw"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Provenance string  `json:"provenance"`
}

// AskInput is the input schema for the ask_document tool.
type AskInput struct {
	DocumentID string `json:"document_id" jsonschema:"document returned by extract_entities"`
	SessionID  string `json:"session_id,omitempty" jsonschema:"session to continue; omit to start a new one"`
	Question   string `json:"question" jsonschema:"question about the document"`
}

// AskOutput is the output schema for the ask_document tool.
type AskOutput struct {
	Answer        string   `json:"answer"`
	CitedChunkIDs []string `json:"cited_chunk_ids"`
	SessionID     string   `json:"session_id"`
	Insufficient  bool     `json:"insufficient"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "extract_entities",
		Description: "Load a financial document and extract counterparties, notionals, ISINs, " +
			"dates, payment frequencies and other entities. The returned document_id can be " +
			"passed to ask_document.",
	}, s.handleExtract)

	if s.ports.Ask != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name: "ask_document",
			Description: "Answer a question about a document loaded with extract_entities. " +
				"Answers cite passages as [chunk:<id>]; pass session_id to ask follow-ups.",
		}, s.handleAsk)
	}
}

// handleExtract handles the extract_entities tool invocation.
func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, ExtractOutput, error) {
	raw, err := rawDocument(input)
	if err != nil {
		return nil, ExtractOutput{}, toolError(err)
	}

	res, err := s.ports.Document.Upload(ctx, raw)
	if err != nil {
		return nil, ExtractOutput{}, toolError(err)
	}

	output := ExtractOutput{
		DocumentID: res.DocumentID,
		Name:       res.Name,
		Format:     res.Format.String(),
		Entities:   make([]EntityOutput, len(res.Entities)),
		ChunkCount: res.ChunkCount,
		Indexed:    res.Indexed,
	}
	for i, e := range res.Entities {
		output.Entities[i] = EntityOutput{
			Type:       e.Type.String(),
			Value:      e.Normalized,
			Raw:        e.Raw,
			Start:      e.Start,
			End:        e.End,
			Confidence: e.Confidence,
			Provenance: string(e.Provenance),
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask_document tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	res, err := s.ports.Ask.Ask(ctx, domain.AskRequest{
		DocumentID: input.DocumentID,
		SessionID:  input.SessionID,
		Question:   input.Question,
	})
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	return nil, AskOutput{
		Answer:        res.Answer,
		CitedChunkIDs: res.CitedChunkIDs,
		SessionID:     res.SessionID,
		Insufficient:  res.Insufficient,
	}, nil
}

// rawDocument builds an upload from exactly one of the input sources.
func rawDocument(input ExtractInput) (*domain.RawDocument, error) {
	set := 0
	for _, v := range []string{input.Path, input.Text, input.ContentBase64} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: set exactly one of path, text or content_base64", domain.ErrInvalidInput)
	}

	raw := &domain.RawDocument{
		Name:   input.Name,
		Format: domain.Format(strings.ToLower(input.Format)),
	}
	switch {
	case input.Path != "":
		content, err := os.ReadFile(input.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		raw.Content = content
		if raw.Name == "" {
			raw.Name = filepath.Base(input.Path)
		}
	case input.Text != "":
		raw.Content = []byte(input.Text)
		if raw.Format == domain.FormatUnset {
			raw.Format = domain.FormatText
		}
	default:
		content, err := base64.StdEncoding.DecodeString(input.ContentBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: content_base64: %v", domain.ErrInvalidInput, err)
		}
		raw.Content = content
	}
	return raw, nil
}

// toolError converts err into the structured {kind, message} error body.
func toolError(err error) error {
	return domain.NewError(err)
}
