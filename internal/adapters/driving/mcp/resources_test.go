package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		prefix   string
		suffix   string
		expected string
	}{
		{
			name:     "document entities URI",
			uri:      "findoc://documents/doc-123/entities",
			prefix:   "documents/",
			suffix:   "/entities",
			expected: "doc-123",
		},
		{
			name:     "session history URI",
			uri:      "findoc://sessions/s-1/history",
			prefix:   "sessions/",
			suffix:   "/history",
			expected: "s-1",
		},
		{
			name:     "invalid scheme",
			uri:      "file://documents/doc-123/entities",
			prefix:   "documents/",
			suffix:   "/entities",
			expected: "",
		},
		{
			name:     "missing suffix",
			uri:      "findoc://documents/doc-123",
			prefix:   "documents/",
			suffix:   "/entities",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "findoc://documents/a/b/entities",
			prefix:   "documents/",
			suffix:   "/entities",
			expected: "",
		},
		{
			name:     "empty id",
			uri:      "findoc://documents//entities",
			prefix:   "documents/",
			suffix:   "/entities",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractID(tt.uri, tt.prefix, tt.suffix))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	docs := &mockDocumentService{documents: []domain.Document{
		{ID: "doc-1", Name: "termsheet.pdf", Format: domain.FormatPDF, Content: "Party A"},
	}}
	server := newTestServer(t, docs, nil)

	result, err := server.handleDocumentsResource(context.Background(), readRequest("findoc://documents"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var infos []map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "doc-1", infos[0]["id"])
	assert.Equal(t, "pdf", infos[0]["format"])
	assert.EqualValues(t, 7, infos[0]["chars"])

	docs.err = errors.New("store down")
	_, err = server.handleDocumentsResource(context.Background(), readRequest("findoc://documents"))
	assert.Error(t, err)
}

func TestServer_handleEntitiesResource(t *testing.T) {
	docs := &mockDocumentService{entities: []domain.ExtractedEntity{
		{Type: domain.EntityISIN, Normalized: "US0378331005", Provenance: domain.ProvenancePattern},
	}}
	server := newTestServer(t, docs, nil)

	result, err := server.handleEntitiesResource(context.Background(), readRequest("findoc://documents/doc-1/entities"))
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "US0378331005")

	_, err = server.handleEntitiesResource(context.Background(), readRequest("findoc://documents/doc-1"))
	assert.Error(t, err)

	docs.err = domain.ErrUnknownDocument
	_, err = server.handleEntitiesResource(context.Background(), readRequest("findoc://documents/nope/entities"))
	assert.Error(t, err)
}

func TestServer_handleHistoryResource(t *testing.T) {
	ask := &mockAskService{turns: []domain.Turn{
		{Question: "Who is Party A?", Answer: "Bank XYZ [chunk:c1]", CitedChunkIDs: []string{"c1"}},
	}}
	server := newTestServer(t, &mockDocumentService{}, ask)

	result, err := server.handleHistoryResource(context.Background(), readRequest("findoc://sessions/s-1/history"))
	require.NoError(t, err)

	var turns []domain.Turn
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &turns))
	require.Len(t, turns, 1)
	assert.Equal(t, "Who is Party A?", turns[0].Question)

	ask.err = domain.ErrUnknownSession
	_, err = server.handleHistoryResource(context.Background(), readRequest("findoc://sessions/s-9/history"))
	assert.Error(t, err)
}
