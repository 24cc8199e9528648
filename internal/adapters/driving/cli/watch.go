package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/findoc/internal/adapters/driving/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the documents of a directory loaded",
	Long: `Loads every supported document in the directory, then follows changes:
new or rewritten files are extracted again and deleted files are discarded.
Runs until interrupted.`,
	Example: `  findoc watch ./termsheets`,
	Args:    cobra.ExactArgs(1),
	RunE:    runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is loaded")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireDocuments(); err != nil {
		return err
	}

	w := watch.New(args[0], documentService,
		watch.WithDebounce(watchDebounce),
		watch.WithExtensions(extensions...),
		watch.WithHandler(func(ev watch.Event) { printWatchEvent(cmd, ev) }),
	)
	return w.Run(cmd.Context())
}

func printWatchEvent(cmd *cobra.Command, ev watch.Event) {
	switch {
	case ev.Err != nil:
		cmd.Printf("! %s: %v\n", ev.Path, ev.Err)
	case ev.Removed:
		cmd.Printf("- %s (%s)\n", ev.Path, ev.DocumentID)
	default:
		cmd.Printf("+ %s (%s): %d entities, %d chunks\n",
			ev.Path, ev.DocumentID, len(ev.Result.Entities), ev.Result.ChunkCount)
	}
}
