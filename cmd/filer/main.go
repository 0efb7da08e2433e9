// Command filer imports files into an AI-organised workspace.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/filer-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/filer-cli/internal/adapters/driven/classifier"
	"github.com/custodia-labs/filer-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/filer-cli/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/filer-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/filer-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/filer-cli/internal/core/services"
	"github.com/custodia-labs/filer-cli/internal/logger"
	"github.com/custodia-labs/filer-cli/internal/normalisers"
	"github.com/custodia-labs/filer-cli/internal/postprocessors"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	dataDir, err := file.DefaultDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}

	if err := logger.Setup(logger.Options{File: filepath.Join(dataDir, "logs", "filer.log")}); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: file logging disabled:", err)
	}
	defer logger.Close() //nolint:errcheck

	app, err := wire(dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	defer app.close()

	cli.SetVersion(version)
	cli.SetServices(app.services)
	return cli.Execute(ctx)
}

// application holds the wired services and what must be released on exit.
type application struct {
	services cli.Services
	closers  []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func wire(dataDir string) (*application, error) {
	app := &application{}

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(dataDir, "data"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app.closers = append(app.closers, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing database", "error", err)
		}
	})

	aiServices := ai.Initialise(settings)
	app.closers = append(app.closers, aiServices.Close)

	cls := classifier.New(aiServices.LLMService, classifier.Options{
		RequestsPerMinute: settings.LLM.RequestsPerMinute,
	})
	if prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts")); err != nil {
		logger.Warn("custom prompts disabled", "error", err)
	} else {
		cls.SetPromptStore(prompts)
	}

	records := store.RecordStore()
	storage := filesystem.New(settingsService, records, filesystem.Options{
		MaxFileSize: int64(settings.Workspace.MaxFileSizeMB) << 20,
	})

	pipeline, err := postprocessors.NewPipelineFromConfig(postprocessors.NewDefaultRegistry(), settingsService.PipelineConfig())
	if err != nil {
		app.close()
		return nil, err
	}

	ingestion := services.NewIngestionService(
		records,
		storage,
		normalisers.NewDefaultRegistry(),
		pipeline,
		store.DocumentStore(),
		store.VectorIndex(),
		aiServices.EmbeddingService,
	)

	bus := services.NewEventBus()
	executor, err := services.NewStageExecutor(services.StageExecutorConfig{
		Config:     settingsService,
		Storage:    storage,
		Classifier: cls,
		Publisher:  bus,
		Ingestor:   ingestion,
	})
	if err != nil {
		app.close()
		return nil, err
	}

	queue := services.NewImportQueue(executor, store.HistoryStore())
	app.closers = append(app.closers, func() {
		if err := queue.Close(); err != nil {
			logger.Warn("closing import queue", "error", err)
		}
	})

	app.services = cli.Services{
		Settings: settingsService,
		Imports:  queue,
		Events:   bus,
		History:  services.NewHistoryService(store.HistoryStore()),
		Records:  services.NewRecordService(records),
		Search:   ingestion,
		Ingestor: ingestion,
	}
	return app, nil
}
