// Package driven holds the ports the import engine calls out through.
// Adapters under internal/adapters/driven implement them; the core never
// imports an adapter.
//
// An import needs a WorkspaceConfigProvider, FileStorage, a Classifier and
// an EventPublisher. Everything else may be nil and the engine degrades:
// no KnowledgeIngestor means saved files are not indexed, no LLMService
// means rule-based recommendations, no EmbeddingService means chunks
// without vectors, and no ImportHistoryStore means no history.
//
// This package may import domain and nothing else from the module.
package driven
