// Package cli provides the filer command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services wired in by main.
var (
	settingsService driving.SettingsService
	importQueue     driving.ImportQueue
	eventSubscriber driving.EventSubscriber
	historyService  driving.ImportHistory
	recordService   driving.RecordService
	searchService   driving.KnowledgeSearch
	ingestor        driven.KnowledgeIngestor
)

// Services bundles the ports the commands use. Nil fields disable the
// commands that need them.
type Services struct {
	Settings driving.SettingsService
	Imports  driving.ImportQueue
	Events   driving.EventSubscriber
	History  driving.ImportHistory
	Records  driving.RecordService
	Search   driving.KnowledgeSearch
	Ingestor driven.KnowledgeIngestor
}

// SetServices installs the application services.
func SetServices(s Services) {
	settingsService = s.Settings
	importQueue = s.Imports
	eventSubscriber = s.Events
	historyService = s.History
	recordService = s.Records
	searchService = s.Search
	ingestor = s.Ingestor
}

// SetVersion sets the version reported by `filer version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "filer",
	Short: "Import files into an AI-organised workspace",
	Long: `filer stages files, asks a language model where they belong in your
workspace, saves them there and indexes them for semantic search.

Run 'filer settings' to choose a workspace and configure AI providers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")
}

// ReportedError fails a command whose failure the user has already seen.
// Execute returns it without printing.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }

func (e *ReportedError) Unwrap() error { return e.Err }

// Execute runs the root command and prints its error, if any, once.
func Execute(ctx context.Context) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return nil
	}
	var reported *ReportedError
	if !errors.As(err, &reported) {
		if cmd == nil {
			cmd = rootCmd
		}
		cmd.PrintErrln("Error:", err)
	}
	return err
}

func requireImports() error {
	if importQueue == nil || eventSubscriber == nil {
		return errors.New("import queue not configured")
	}
	return nil
}
