package mcp

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

func newTestServer(t *testing.T, docs *mockDocumentService, ask *mockAskService) *Server {
	t.Helper()
	ports := &Ports{Document: docs}
	if ask != nil {
		ports.Ask = ask
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("returns extracted entities", func(t *testing.T) {
		docs := &mockDocumentService{
			result: &domain.UploadResult{
				DocumentID: "doc-1",
				Name:       "termsheet.txt",
				Format:     domain.FormatText,
				Entities: []domain.ExtractedEntity{{
					Type:       domain.EntityISIN,
					Raw:        "US0378331005",
					Normalized: "US0378331005",
					Start:      14,
					End:        26,
					Confidence: 0.95,
					Provenance: domain.ProvenancePattern,
				}},
				ChunkCount: 3,
				Indexed:    true,
			},
		}
		server := newTestServer(t, docs, nil)

		_, output, err := server.handleExtract(ctx, nil, ExtractInput{Text: "The bond ISIN US0378331005 matures."})
		require.NoError(t, err)

		assert.Equal(t, "doc-1", output.DocumentID)
		assert.Equal(t, "text", output.Format)
		assert.Equal(t, 3, output.ChunkCount)
		assert.True(t, output.Indexed)
		require.Len(t, output.Entities, 1)
		assert.Equal(t, "isin", output.Entities[0].Type)
		assert.Equal(t, "US0378331005", output.Entities[0].Value)
		assert.Equal(t, string(domain.ProvenancePattern), output.Entities[0].Provenance)

		require.NotNil(t, docs.lastUpload)
		assert.Equal(t, domain.FormatText, docs.lastUpload.Format)
	})

	t.Run("reads a local file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "confirm.txt")
		require.NoError(t, os.WriteFile(path, []byte("Party A: Bank XYZ"), 0o600))
		docs := &mockDocumentService{result: &domain.UploadResult{DocumentID: "doc-2"}}
		server := newTestServer(t, docs, nil)

		_, output, err := server.handleExtract(ctx, nil, ExtractInput{Path: path})
		require.NoError(t, err)
		assert.Equal(t, "doc-2", output.DocumentID)
		assert.Equal(t, "confirm.txt", docs.lastUpload.Name)
		assert.Equal(t, "Party A: Bank XYZ", string(docs.lastUpload.Content))
		assert.Empty(t, output.Entities)
	})

	t.Run("decodes base64 content", func(t *testing.T) {
		docs := &mockDocumentService{result: &domain.UploadResult{DocumentID: "doc-3"}}
		server := newTestServer(t, docs, nil)

		input := ExtractInput{
			ContentBase64: base64.StdEncoding.EncodeToString([]byte("%PDF-1.7")),
			Name:          "report.pdf",
			Format:        "PDF",
		}
		_, _, err := server.handleExtract(ctx, nil, input)
		require.NoError(t, err)
		assert.Equal(t, domain.FormatPDF, docs.lastUpload.Format)
		assert.Equal(t, "%PDF-1.7", string(docs.lastUpload.Content))
	})

	t.Run("rejects ambiguous or missing input", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{}, nil)
		for _, input := range []ExtractInput{
			{},
			{Text: "a", Path: "/tmp/a.txt"},
			{ContentBase64: "!!not base64!!"},
			{Path: filepath.Join(t.TempDir(), "missing.pdf")},
		} {
			_, _, err := server.handleExtract(ctx, nil, input)
			var body *domain.Error
			require.ErrorAs(t, err, &body)
			assert.Equal(t, domain.KindInvalidInput, body.Kind)
		}
	})

	t.Run("returns structured error on upload failure", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrUnsupportedFormat}
		server := newTestServer(t, docs, nil)

		_, _, err := server.handleExtract(ctx, nil, ExtractInput{ContentBase64: "AAEC"})
		var body *domain.Error
		require.ErrorAs(t, err, &body)
		assert.Equal(t, domain.KindUnsupportedFormat, body.Kind)
		assert.Contains(t, err.Error(), "unsupported")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("answers with citations", func(t *testing.T) {
		ask := &mockAskService{result: &domain.AskResult{
			Answer:        "Quarterly [chunk:c1]",
			CitedChunkIDs: []string{"c1"},
			SessionID:     "s-1",
		}}
		server := newTestServer(t, &mockDocumentService{}, ask)

		_, output, err := server.handleAsk(ctx, nil, AskInput{DocumentID: "doc-1", Question: "Frequency?"})
		require.NoError(t, err)
		assert.Equal(t, "Quarterly [chunk:c1]", output.Answer)
		assert.Equal(t, []string{"c1"}, output.CitedChunkIDs)
		assert.Equal(t, "s-1", output.SessionID)
		assert.False(t, output.Insufficient)
		assert.Equal(t, "doc-1", ask.lastRequest.DocumentID)
	})

	t.Run("continues a session", func(t *testing.T) {
		ask := &mockAskService{result: &domain.AskResult{SessionID: "s-1", CitedChunkIDs: []string{}}}
		server := newTestServer(t, &mockDocumentService{}, ask)

		_, _, err := server.handleAsk(ctx, nil, AskInput{DocumentID: "doc-1", SessionID: "s-1", Question: "And B?"})
		require.NoError(t, err)
		assert.Equal(t, "s-1", ask.lastRequest.SessionID)
	})

	t.Run("returns structured error", func(t *testing.T) {
		ask := &mockAskService{err: domain.ErrSessionDocumentMismatch}
		server := newTestServer(t, &mockDocumentService{}, ask)

		_, _, err := server.handleAsk(ctx, nil, AskInput{DocumentID: "doc-1", SessionID: "s-9", Question: "q"})
		var body *domain.Error
		require.ErrorAs(t, err, &body)
		assert.Equal(t, domain.KindInvalidInput, body.Kind)
	})
}
