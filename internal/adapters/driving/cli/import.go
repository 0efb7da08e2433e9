package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/services"
)

var (
	importRetry string
	importYes   bool
	importDir   string
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import a file into the workspace",
	Long: `Stage a file, ask the LLM where it belongs and save it there.

Unless auto-classify is enabled, the recommended directory is confirmed
before saving. Use --yes to accept the recommendation or --dir to choose
the directory up front. Without either, an interactive terminal prompts.

Use --retry with a record ID to resume an import that was staged but
never saved.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if importRetry != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importRetry, "retry", "", "retry a staged record by ID")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "accept the recommended directory")
	importCmd.Flags().StringVarP(&importDir, "dir", "d", "", "save to this workspace directory")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := requireImports(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := importRequest(ctx, args)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	failed := false
	tracker := services.TrackImport(eventSubscriber, importQueue, req, func(ev domain.StageEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Kind == domain.EventError {
			failed = true
		}
		if line := formatEvent(ev); line != "" {
			cmd.Println(line)
		}
	})
	defer tracker.Close()

	// reported turns an import failure already printed as an event into a
	// silent exit status.
	reported := func(err error) error {
		mu.Lock()
		defer mu.Unlock()
		if failed {
			return &ReportedError{Err: err}
		}
		return err
	}

	parked, result, err := tracker.Wait(ctx)
	if err != nil {
		return reported(err)
	}
	if parked {
		if err := resolveConfirmation(ctx, cmd, tracker.TaskID()); err != nil {
			return err
		}
		result, err = tracker.Completion().Wait(ctx)
		if err != nil {
			return reported(err)
		}
	}

	if result.Outcome == domain.OutcomeSuccess && result.RecordID != "" {
		cmd.Printf("Record: %s\n", result.RecordID)
	}
	return nil
}

func importRequest(ctx context.Context, args []string) (domain.ImportRequest, error) {
	if importRetry != "" {
		if recordService == nil {
			return domain.ImportRequest{}, errors.New("record service not configured")
		}
		return recordService.RetryRequest(ctx, importRetry)
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return domain.ImportRequest{}, fmt.Errorf("resolve path: %w", err)
	}
	return domain.ImportRequest{
		Path:   path,
		Mode:   domain.ImportModeNew,
		Origin: domain.OriginManual,
	}, nil
}

// resolveConfirmation answers the parked import from flags or a prompt.
func resolveConfirmation(ctx context.Context, cmd *cobra.Command, taskID string) error {
	pending, ok := importQueue.Pending()
	if !ok {
		return domain.ErrNothingAwaitingConfirmation
	}

	switch {
	case importDir != "":
		return importQueue.Confirm(ctx, taskID, importDir)
	case importYes:
		return importQueue.Confirm(ctx, taskID, workspaceDir(pending.Recommended))
	case !stdinIsTerminal():
		if err := importQueue.Cancel(ctx, taskID); err != nil {
			return err
		}
		return errors.New("confirmation required: rerun with --yes or --dir")
	}

	dir, err := promptDirectory(ctx, cmd, bufio.NewReader(cmd.InOrStdin()), pending)
	if err != nil {
		return err
	}
	if dir == "" {
		return importQueue.Cancel(ctx, taskID)
	}
	return importQueue.Confirm(ctx, taskID, workspaceDir(dir))
}

// workspaceDir maps the workspace root to ".".
func workspaceDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// promptDirectory returns the chosen directory, or "" to cancel.
func promptDirectory(
	ctx context.Context,
	cmd *cobra.Command,
	reader *bufio.Reader,
	pending *domain.PendingConfirmation,
) (string, error) {
	choices := []string{workspaceDir(pending.Recommended)}
	for _, alt := range pending.Alternatives {
		choices = append(choices, workspaceDir(alt))
	}

	cmd.Println()
	cmd.Printf("Where should %s go?\n", filepath.Base(pending.Path))
	for i, dir := range choices {
		label := displayDirectory(dir)
		if i == 0 {
			label += " (recommended)"
		}
		cmd.Printf("  %d. %s\n", i+1, label)
	}
	cmd.Println("  r. Choose another folder")
	cmd.Println("  c. Cancel")
	cmd.Print("\nEnter choice [1]: ")

	input, err := readChoice(reader)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(input) {
	case "c":
		return "", nil
	case "r":
		dirs, err := importQueue.Reselect(ctx, pending.TaskID)
		if err != nil {
			return "", err
		}
		return promptFolder(cmd, reader, dirs)
	}
	return choices[parseChoice(input, len(choices), 1)-1], nil
}

// promptFolder lists the workspace tree. A typed path that is not a number
// creates a new folder.
func promptFolder(cmd *cobra.Command, reader *bufio.Reader, dirs []string) (string, error) {
	cmd.Println()
	for i, dir := range dirs {
		cmd.Printf("  %d. %s\n", i+1, displayDirectory(dir))
	}
	cmd.Print("\nEnter number or new folder path (empty to cancel): ")

	input, err := readChoice(reader)
	if err != nil || input == "" {
		return "", err
	}
	if idx := parseChoice(input, len(dirs), 0); idx > 0 {
		return workspaceDir(dirs[idx-1]), nil
	}
	return input, nil
}

func readChoice(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

var stageLabels = map[domain.Stage]string{
	domain.StageStageFile:          "Staging file",
	domain.StageListDirectory:      "Reading workspace",
	domain.StageDescribeContent:    "Describing content",
	domain.StageRecommendDirectory: "Choosing directory",
	domain.StageAwaitConfirmation:  "Awaiting confirmation",
	domain.StageSaveFile:           "Saving",
	domain.StageIngestKnowledge:    "Indexing",
}

// formatEvent renders an event as one progress line. Progress starts are
// skipped to keep the output short.
func formatEvent(ev domain.StageEvent) string {
	switch ev.Kind {
	case domain.EventStart:
		return "Importing " + ev.Path
	case domain.EventProgress:
		label := stageLabels[ev.Stage]
		if label == "" {
			label = string(ev.Stage)
		}
		switch ev.State {
		case domain.StateSuccess:
			if ev.Message != "" {
				return fmt.Sprintf("  %s: %s", label, ev.Message)
			}
			return "  " + label + ": done"
		case domain.StateWarning:
			return fmt.Sprintf("  %s: warning: %s", label, ev.Message)
		case domain.StateReselect:
			return "  " + label + ": choosing manually"
		}
		return ""
	case domain.EventSuccess:
		return ev.Message
	case domain.EventError:
		if ev.Message != "" {
			return "Failed: " + ev.Message
		}
		return fmt.Sprintf("Failed: %v", ev.Err)
	case domain.EventCancelled:
		return "Cancelled: " + ev.Message
	}
	return ""
}

func displayDirectory(dir string) string {
	if dir == "" || dir == "." {
		return "(workspace root)"
	}
	return dir
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
