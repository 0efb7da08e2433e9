// Package logger provides structured logging for the Filer CLI.
//
// Log records fan out to two handlers: human-readable text on stderr and
// JSON appended to a log file. Stderr only shows warnings unless verbose
// mode is enabled via the --verbose flag; the file receives everything
// from info level up, or debug when verbose. Records carrying Surfaced()
// go to the file only.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

var (
	mu         sync.RWMutex
	output     io.Writer = os.Stderr
	fileOut    io.Writer
	fileCloser io.Closer
	current    *slog.Logger

	stderrLevel = new(slog.LevelVar)
	fileLevel   = new(slog.LevelVar)
)

// SurfacedKey marks a record whose message the user already saw through the
// event stream.
const SurfacedKey = "surfaced"

// Surfaced returns the attribute that keeps a record off stderr.
func Surfaced() slog.Attr {
	return slog.Bool(SurfacedKey, true)
}

func init() {
	stderrLevel.Set(slog.LevelWarn)
	fileLevel.Set(slog.LevelInfo)
	current = build(output, nil)
}

// Options configures Setup.
type Options struct {
	// File is the JSON log file. Empty logs to stderr only.
	File string

	// Verbose shows debug records on stderr.
	Verbose bool
}

// Setup installs the fanout logger. If the log file cannot be opened the
// logger falls back to stderr only and the error is returned.
func Setup(opts Options) error {
	SetVerbose(opts.Verbose)

	mu.Lock()
	defer mu.Unlock()

	closeFileLocked()

	if opts.File == "" {
		current = build(output, nil)
		slog.SetDefault(current)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		current = build(output, nil)
		slog.SetDefault(current)
		return fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		current = build(output, nil)
		slog.SetDefault(current)
		return fmt.Errorf("open log file: %w", err)
	}

	fileOut = file
	fileCloser = file
	current = build(output, fileOut)
	slog.SetDefault(current)
	return nil
}

// SetupWithWriters creates a fanout logger with custom writers (for testing).
// It does not replace the package logger.
func SetupWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}

// Close flushes and closes the log file, if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeFileLocked()
	current = build(output, nil)
	return err
}

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	if v {
		stderrLevel.Set(slog.LevelDebug)
		fileLevel.Set(slog.LevelDebug)
		return
	}
	stderrLevel.Set(slog.LevelWarn)
	fileLevel.Set(slog.LevelInfo)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	return stderrLevel.Level() <= slog.LevelDebug
}

// SetOutput sets the stderr-side writer. Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	current = build(output, fileOut)
}

// L returns the current logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Debug logs at debug level with key/value attributes.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level with key/value attributes.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level with key/value attributes.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level with key/value attributes.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

func build(stderr, file io.Writer) *slog.Logger {
	stderrHandler := slogmulti.Router().
		Add(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: stderrLevel}), notSurfaced).
		Handler()
	if file == nil {
		return slog.New(stderrHandler)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: fileLevel})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}

func notSurfaced(_ context.Context, r slog.Record) bool {
	surfaced := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == SurfacedKey && a.Value.Kind() == slog.KindBool && a.Value.Bool() {
			surfaced = true
			return false
		}
		return true
	})
	return !surfaced
}

func closeFileLocked() error {
	var err error
	if fileCloser != nil {
		err = fileCloser.Close()
	}
	fileOut = nil
	fileCloser = nil
	return err
}
