package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

var chatHistoryTurns int

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Chat about a document",
	Long: `Loads the document and starts a conversation about it.

Follow-up questions ("and Party B?") reuse the previous turn's passages.
Type a question per line. Commands:
  :entities  list the extracted entities
  :history   show recent turns
  :quit      leave the chat`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntVar(&chatHistoryTurns, "history", 5, "turns shown by :history")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := requireAsk(); err != nil {
		return err
	}
	ctx := cmd.Context()

	raw, err := readDocument(args[0])
	if err != nil {
		return err
	}
	uploaded, err := documentService.Upload(ctx, raw)
	if err != nil {
		return err
	}
	if !uploaded.Indexed {
		return domain.ErrIndexNotReady
	}
	cmd.Printf("Loaded %s: %d entities, %d chunks. Type :quit to leave.\n",
		uploaded.Name, len(uploaded.Entities), uploaded.ChunkCount)

	c := &chat{cmd: cmd, documentID: uploaded.DocumentID}
	return c.loop(ctx, cmd.InOrStdin(), isTerminal(cmd.InOrStdin()))
}

// chat holds one conversation's state between lines.
type chat struct {
	cmd        *cobra.Command
	documentID string
	sessionID  string
}

func (c *chat) loop(ctx context.Context, in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			c.cmd.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ":quit", ":q", ":exit":
			return nil
		case ":entities":
			c.entities(ctx)
			continue
		case ":history":
			c.history(ctx)
			continue
		}

		res, err := askService.Ask(ctx, domain.AskRequest{
			DocumentID: c.documentID,
			SessionID:  c.sessionID,
			Question:   line,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.cmd.Printf("Error (%s): %v\n\n", domain.KindOf(err), err)
			continue
		}
		c.sessionID = res.SessionID
		printAnswer(c.cmd, res)
		c.cmd.Println()
	}
}

func (c *chat) entities(ctx context.Context) {
	entities, err := documentService.Entities(ctx, c.documentID)
	if err != nil {
		c.cmd.Printf("Error: %v\n", err)
		return
	}
	printEntities(c.cmd, entities)
	c.cmd.Println()
}

func (c *chat) history(ctx context.Context) {
	if c.sessionID == "" {
		c.cmd.Println("No questions asked yet.")
		return
	}
	turns, err := askService.History(ctx, c.sessionID, chatHistoryTurns)
	if err != nil {
		c.cmd.Printf("Error: %v\n", err)
		return
	}
	for i, t := range turns {
		c.cmd.Printf("[%d] Q: %s\n    A: %s\n", i+1, t.Question, oneLine(t.Answer, 100))
	}
	c.cmd.Println()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
