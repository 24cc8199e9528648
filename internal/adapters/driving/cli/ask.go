package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [file] [question]",
	Short: "Ask a question about a document",
	Long: `Loads the document and answers the question from its content.

Answers cite the passages they rely on as [chunk:<id>]. When the document
does not cover the question the answer says so instead of guessing.
Requires both an embedding and an LLM provider (see 'findoc settings').`,
	Example: `  findoc ask termsheet.pdf "What is the payment frequency?"`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the JSON result of the ask command.
type askOutput struct {
	Result *domain.AskResult `json:"result,omitempty"`
	Error  *domain.Error     `json:"error,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireAsk(); err != nil {
		return err
	}
	question := strings.Join(args[1:], " ")

	res, err := askFile(cmd, args[0], question)
	if askJSON {
		if perr := printJSON(cmd, askOutput{Result: res, Error: errorBody(err)}); perr != nil {
			return perr
		}
		return err
	}
	if err != nil {
		return err
	}
	printAnswer(cmd, res)
	return nil
}

func askFile(cmd *cobra.Command, path, question string) (*domain.AskResult, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	uploaded, err := documentService.Upload(cmd.Context(), raw)
	if err != nil {
		return nil, err
	}
	if !uploaded.Indexed {
		return nil, domain.ErrIndexNotReady
	}
	return askService.Ask(cmd.Context(), domain.AskRequest{
		DocumentID: uploaded.DocumentID,
		Question:   question,
	})
}

func printAnswer(cmd *cobra.Command, res *domain.AskResult) {
	cmd.Println(res.Answer)
	if len(res.CitedChunkIDs) > 0 {
		cmd.Printf("\nSources: %s\n", strings.Join(res.CitedChunkIDs, ", "))
	}
}
