package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent imports",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	entries, err := historyService.Recent(commandContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(entries) == 0 {
		cmd.Println("No imports yet.")
		return nil
	}

	for i := range entries {
		e := &entries[i]
		when := "-"
		if !e.EndedAt.IsZero() {
			when = e.EndedAt.Local().Format(time.DateTime)
		}
		cmd.Printf("%s  %-9s  %-6s  %s\n", when, e.Outcome, e.Origin, e.Path)
		switch {
		case e.Error != "":
			cmd.Printf("    %s\n", e.Error)
		case e.SavedPath != "":
			cmd.Printf("    -> %s\n", e.SavedPath)
		case e.Message != "":
			cmd.Printf("    %s\n", e.Message)
		}
	}
	return nil
}
