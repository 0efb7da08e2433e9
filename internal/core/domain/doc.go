// Package domain holds the types the import engine is built from: import
// requests and their completion handles, the per-task pipeline state, the
// StageEvent union, file records, and the knowledge documents produced by
// ingestion. It imports only the standard library.
package domain
