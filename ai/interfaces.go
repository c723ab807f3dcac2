package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer produces free text from a prompt.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete returns the model's completion of prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelSelector is implemented by providers that can serve embeddings from
// models other than the configured default, keyed by model name.
type ModelSelector interface {
	// EmbedderFor returns an Embedder for the named model.
	// Returns ErrUnknownModel if the provider cannot serve it.
	EmbedderFor(model string) (Embedder, error)
}

// ModelInfo describes an embedding model.
type ModelInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	MaxLength int    `json:"max_length"`
	Provider  string `json:"provider"`
}

// Provider aggregates the capabilities of one embedding backend.
// Exactly one Provider is active per deployment.
type Provider interface {
	// Name identifies the backend family (local, openai, ollama, gemini).
	Name() string

	// Embedder returns the text embedding service for the configured model.
	Embedder() Embedder

	// Completer returns the completion service, or nil if the backend has none.
	Completer() Completer

	// Model describes the configured embedding model.
	Model() ModelInfo

	// Close releases resources held by the provider and its services.
	Close() error
}
