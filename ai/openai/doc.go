// Package openai embeds text through any OpenAI-compatible /embeddings
// endpoint (OpenAI, Ollama, LocalAI, vLLM, a local m3e-base server) using
// langchaingo.
//
//	provider, err := openai.NewProvider(ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("m3e-base"),
//	))
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
// Query embeddings are cached when Config.CacheSize is positive.
package openai
