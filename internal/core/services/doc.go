// Package services is the import engine: the event bus, the stage
// executor and its confirmation gate, the single-worker import queue,
// ingestion and the settings and record services around them.
package services
