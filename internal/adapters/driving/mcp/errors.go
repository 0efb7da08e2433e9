// Package mcp exposes the import queue and knowledge base as Model Context
// Protocol tools, so an AI assistant can file documents into the workspace.
package mcp

import "errors"

var (
	// ErrMissingImportQueue is returned when the import queue is not provided.
	ErrMissingImportQueue = errors.New("mcp: import queue is required")

	// ErrMissingEvents is returned when the event subscriber is not provided.
	ErrMissingEvents = errors.New("mcp: event subscriber is required")
)
