package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// readDocument reads a file from disk into an upload.
func readDocument(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &domain.RawDocument{Name: filepath.Base(path), Content: content}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// errorBody is the structured form of a failed operation.
func errorBody(err error) *domain.Error {
	if err == nil {
		return nil
	}
	return domain.NewError(err)
}

func printEntities(cmd *cobra.Command, entities []domain.ExtractedEntity) {
	if len(entities) == 0 {
		cmd.Println("  No entities found.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TYPE\tVALUE\tRAW\tSPAN\tCONF\tSOURCE")
	for _, e := range entities {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d-%d\t%.2f\t%s\n",
			e.Type, e.Normalized, oneLine(e.Raw, 40), e.Start, e.End, e.Confidence, e.Provenance)
	}
	w.Flush()
}

// oneLine collapses whitespace and truncates s to max runes.
func oneLine(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > maxRunes {
		return string(r[:maxRunes-1]) + "…"
	}
	return s
}
