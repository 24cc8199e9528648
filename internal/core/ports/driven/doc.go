// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser: Decodes raw bytes of one format into a Document
//   - NormaliserRegistry: Selects the normaliser for an upload
//   - PostProcessor: Splits documents into chunks
//   - Recogniser: Produces entity candidates from document text
//   - DocumentStore: Holds documents, chunks and entities for the process lifetime
//   - SessionStore: Holds conversation sessions
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, question answering is disabled.
//   - VectorIndex: Per-document vector partitions. Only used when EmbeddingService is configured.
//   - LLMService: Language model. Without it, question answering is disabled.
//   - NERModel: Statistical entity tagger. Without it, extraction is pattern-only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, normaliser or extractor package
package driven
