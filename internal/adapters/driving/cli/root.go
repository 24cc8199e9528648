// Package cli provides the findoc command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/findoc/internal/core/ports/driving"
	"github.com/custodia-labs/findoc/internal/logger"
)

// version is set at build time.
var version = "dev"

// Annotation values for bootstrapAnnotation.
const (
	bootstrapAnnotation = "findoc/bootstrap"
	bootstrapNone       = "none"
	bootstrapSettings   = "settings"
)

// Options are the global flags handed to the bootstrap function.
type Options struct {
	Verbose   bool
	Ephemeral bool
	ConfigDir string

	// SettingsOnly is set for commands that never touch documents, so
	// providers are not contacted.
	SettingsOnly bool
}

// Services are the driving ports the commands run against.
type Services struct {
	Settings  driving.SettingsService
	Documents driving.DocumentService
	Ask       driving.AskService

	// Extensions are the file extensions the loader accepts.
	Extensions []string

	// Close releases stores and providers. May be nil.
	Close func() error
}

// Bootstrap builds services for the parsed global flags.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap   Bootstrap
	closeFn     func() error
	globalFlags Options
)

var (
	settingsService driving.SettingsService
	documentService driving.DocumentService
	askService      driving.AskService
	extensions      []string
)

var rootCmd = &cobra.Command{
	Use:   "findoc",
	Short: "Extract entities from financial documents and ask questions about them",
	Long: `findoc loads term sheets, confirmations and reports (PDF, DOCX, XLSX, Markdown, text),
extracts financial entities such as counterparties, notionals, ISINs and dates,
and answers questions about a document with cited passages.`,
	SilenceUsage:       true,
	PersistentPreRunE:  runBootstrap,
	PersistentPostRunE: runShutdown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&globalFlags.Ephemeral, "ephemeral", false, "keep settings in memory; nothing is read from or written to disk")
	flags.StringVar(&globalFlags.ConfigDir, "config-dir", "", "configuration directory (default ~/.findoc)")
}

// SetBootstrap installs the function that wires services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// setServices installs services directly.
func setServices(s *Services) {
	settingsService = s.Settings
	documentService = s.Documents
	askService = s.Ask
	extensions = s.Extensions
	closeFn = s.Close
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(globalFlags.Verbose)

	mode := annotation(cmd)
	if mode == bootstrapNone || bootstrap == nil {
		return nil
	}

	opts := globalFlags
	opts.SettingsOnly = mode == bootstrapSettings
	svc, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	setServices(svc)
	return nil
}

func runShutdown(_ *cobra.Command, _ []string) error {
	if closeFn == nil {
		return nil
	}
	err := closeFn()
	closeFn = nil
	return err
}

// annotation walks up to the first command declaring a bootstrap mode.
func annotation(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if v, ok := c.Annotations[bootstrapAnnotation]; ok {
			return v
		}
	}
	return ""
}

func requireDocuments() error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	return nil
}

func requireAsk() error {
	if err := requireDocuments(); err != nil {
		return err
	}
	if askService == nil {
		return errors.New("ask service not configured")
	}
	return nil
}
