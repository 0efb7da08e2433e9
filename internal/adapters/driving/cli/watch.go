package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/filer-cli/internal/adapters/driving/watch"
)

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Import files as they appear in inbox directories",
	Long: `Watch directories and import every new file that settles there.

Without arguments the directories from 'filer settings watch' are used.
Imports that need confirmation wait until they are confirmed through
the event bridge or MCP, so enable auto-classify for unattended use.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "quiet period before a file is imported")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireImports(); err != nil {
		return err
	}

	dirs, err := watchDirs(args)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return errors.New("no directories to watch: pass them as arguments or run 'filer settings watch add'")
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	w := watch.New(importQueue, dirs, watch.WithSettle(watchSettle))

	var g run.Group
	g.Add(func() error {
		return w.Run(ctx)
	}, func(error) {
		cancel()
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	for _, dir := range dirs {
		cmd.Printf("Watching %s\n", dir)
	}

	err = g.Run()
	if errors.Is(err, run.ErrSignal) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func watchDirs(args []string) ([]string, error) {
	if len(args) == 0 {
		if settingsService == nil {
			return nil, errors.New("settings service not configured")
		}
		settings, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		return settings.Watch.Dirs, nil
	}

	dirs := make([]string, 0, len(args))
	for _, arg := range args {
		dir, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", arg, err)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}
