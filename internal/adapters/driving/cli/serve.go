package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/filer-cli/internal/adapters/driving/bridge"
	"github.com/custodia-labs/filer-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/filer-cli/internal/adapters/driving/watch"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

var (
	serveListen  string
	serveMCPPort int
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the event bridge and inbox watchers",
	Long: `Run filer in the background for desktop integrations.

The event bridge streams import progress over a websocket at /ws and
accepts enqueue, confirm, cancel, reselect and status commands. It only
accepts connections from localhost.

Directories added with 'filer settings watch add' are imported as files
arrive. Use --mcp-port to also serve MCP over HTTP.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "bridge address (default from settings)")
	serveCmd.Flags().IntVar(&serveMCPPort, "mcp-port", 0, "also serve MCP over HTTP on this port")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not watch inbox directories")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireImports(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	listen := serveListen
	if listen == "" {
		listen = settings.Server.Listen
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	var g run.Group

	// Event bridge.
	{
		server := bridge.NewServer(importQueue, eventSubscriber)
		bctx, bcancel := context.WithCancel(ctx)
		g.Add(func() error {
			return server.Run(bctx, listen)
		}, func(error) {
			bcancel()
		})
		cmd.Printf("Event bridge listening on ws://%s/ws\n", listen)
	}

	// Inbox watchers.
	if !serveNoWatch && len(settings.Watch.Dirs) > 0 {
		w := watch.New(importQueue, settings.Watch.Dirs)
		wctx, wcancel := context.WithCancel(ctx)
		g.Add(func() error {
			return w.Run(wctx)
		}, func(error) {
			wcancel()
		})
		cmd.Printf("Watching %d inbox directories\n", len(settings.Watch.Dirs))
	}

	// MCP over HTTP.
	if serveMCPPort > 0 {
		server, err := mcp.NewServer(mcpPorts())
		if err != nil {
			return err
		}
		mctx, mcancel := context.WithCancel(ctx)
		addr := fmt.Sprintf("127.0.0.1:%d", serveMCPPort)
		g.Add(func() error {
			return server.RunHTTP(mctx, addr)
		}, func(error) {
			mcancel()
		})
		cmd.Printf("MCP server listening on http://%s\n", addr)
	}

	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	if errors.Is(err, run.ErrSignal) || errors.Is(err, context.Canceled) {
		logger.Info("shutting down", "reason", err.Error())
		return nil
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
