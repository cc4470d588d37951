package app

import (
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/bergamot-go/bergamot/internal/config"
	"github.com/bergamot-go/bergamot/pkg/provider/embeddings"
	"github.com/bergamot-go/bergamot/pkg/provider/embeddings/ollama"
	"github.com/bergamot-go/bergamot/pkg/provider/embeddings/openai"
	"github.com/bergamot-go/bergamot/pkg/provider/llm"
	"github.com/bergamot-go/bergamot/pkg/provider/llm/anyllm"
)

// llmProviderNames lists the any-llm-go backends exposed through the
// registry, mirroring anyllm's New switch.
var llmProviderNames = []string{
	"openai", "anthropic", "gemini", "ollama",
	"deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// RegisterDefaultProviders registers every built-in LLM and embeddings
// provider factory with reg. Call this once at startup before resolving
// any config.ProviderEntry.
func RegisterDefaultProviders(reg *config.Registry) {
	for _, name := range llmProviderNames {
		name := name
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			return anyllm.New(name, entry.Model, anyLLMOptions(entry)...)
		})
	}

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})
	reg.RegisterEmbeddings("ollama", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		return ollama.New(entry.BaseURL, entry.Model)
	})
}

// anyLLMOptions translates a ProviderEntry into any-llm-go functional
// options. APIKey and BaseURL map directly; entry.Options is not forwarded.
func anyLLMOptions(entry config.ProviderEntry) []anyllmlib.Option {
	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return opts
}
