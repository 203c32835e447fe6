// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - TextExtractor: PDF to page records (normalisers/pdf)
//   - Splitter: page records to chunks (postprocessors/chunker)
//   - EmbeddingService: text to vectors (OpenAI, Ollama)
//   - LLMService: prompt to answer (OpenAI, Anthropic, Ollama)
//   - IndexStorage / VectorStore: persisted index entries (SQLite, memory)
//   - CorpusLister, CorpusWatcher: the PDF directory (connectors/filesystem)
//   - ConfigStore, PromptStore: settings and prompt templates
//   - AIConfigValidator: pings configured providers
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
