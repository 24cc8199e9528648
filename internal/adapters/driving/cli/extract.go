package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract [file...]",
	Short: "Extract financial entities from documents",
	Long: `Loads each document, extracts entities and indexes it for questions.

Supported formats: PDF, DOCX, XLSX, Markdown and plain text. Files are processed
concurrently; a failure on one file does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(extractCmd)
}

// extractOutput is one file's JSON result.
type extractOutput struct {
	Path   string               `json:"path"`
	Result *domain.UploadResult `json:"result,omitempty"`
	Error  *domain.Error        `json:"error,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := requireDocuments(); err != nil {
		return err
	}

	outputs := make([]extractOutput, len(args))
	raws := make([]*domain.RawDocument, 0, len(args))
	pending := make([]int, 0, len(args))
	for i, path := range args {
		outputs[i].Path = path
		raw, err := readDocument(path)
		if err != nil {
			outputs[i].Error = errorBody(fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
			continue
		}
		raws = append(raws, raw)
		pending = append(pending, i)
	}

	results, errs := documentService.UploadMany(cmd.Context(), raws)
	for j, i := range pending {
		outputs[i].Result = results[j]
		outputs[i].Error = errorBody(errs[j])
	}

	failed := 0
	for _, out := range outputs {
		if out.Error != nil {
			failed++
		}
	}

	if extractJSON {
		if err := printJSON(cmd, outputs); err != nil {
			return err
		}
	} else {
		for _, out := range outputs {
			printExtractOutput(cmd, out)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}

func printExtractOutput(cmd *cobra.Command, out extractOutput) {
	cmd.Printf("%s\n", out.Path)
	if out.Error != nil {
		cmd.Printf("  Error (%s): %s\n\n", out.Error.Kind, out.Error.Message)
		return
	}
	res := out.Result
	indexed := "yes"
	if !res.Indexed {
		indexed = "no (questions unavailable)"
	}
	cmd.Printf("  Document: %s\n", res.DocumentID)
	cmd.Printf("  Format:   %s\n", res.Format)
	cmd.Printf("  Chunks:   %d\n", res.ChunkCount)
	cmd.Printf("  Indexed:  %s\n\n", indexed)
	printEntities(cmd, res.Entities)
	cmd.Println()
}
