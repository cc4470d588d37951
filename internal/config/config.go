// Package config provides the configuration schema, loader, and provider
// registry for the translation server.
package config

// Config is the root configuration structure for a translation server.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig  `yaml:"server"`
	LLM        ProviderEntry `yaml:"llm"`
	Embeddings ProviderEntry `yaml:"embeddings"`
	Cache      CacheConfig   `yaml:"cache"`
	Models     []ModelConfig `yaml:"models"`
	Discord    DiscordConfig `yaml:"discord"`
}

// DiscordConfig configures the optional cmd/translate-bot front end. A zero
// value (empty Token) means that front end is not deployed.
type DiscordConfig struct {
	// Token is the Discord bot token, without the "Bot " prefix (the bot
	// adds that prefix itself when it opens the session).
	Token string `yaml:"token"`

	// GuildID scopes slash-command registration to a single guild. Empty
	// registers commands globally (slower propagation, visible everywhere).
	GuildID string `yaml:"guild_id"`
}

// ServerConfig holds network and logging settings for the translation server.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP/WebSocket server listens on
	// (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`

	// Workers is the number of worker goroutines draining the shared batching
	// pool. A value of 0 means the loader applies a default of 4.
	Workers int `yaml:"workers"`
}

// LogLevel is a validated slog level name.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the well-known level names.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// ProviderEntry is the common configuration block for a pluggable backend
// (the LLM collaborator or the embeddings provider behind the semantic cache).
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai",
	// "anthropic", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Leave empty to
	// use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o",
	// "text-embedding-3-small").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// CacheConfig configures the in-process exact caches and the optional
// pgvector-backed semantic (fuzzy) cache tier.
type CacheConfig struct {
	// Shards is the number of shards for the sharded exact cache. 0 disables
	// the sharded cache in favor of the LRU cache (see LRUCapacity).
	Shards int `yaml:"shards"`

	// LRUCapacity is the byte limit on serialized artifacts held by the LRU
	// exact cache. Used only when Shards is 0; 0 selects a 64 MiB default.
	LRUCapacity int `yaml:"lru_capacity"`

	// Semantic configures the optional fuzzy cache tier. A zero value
	// (empty PostgresDSN) disables it.
	Semantic SemanticCacheConfig `yaml:"semantic"`
}

// SemanticCacheConfig configures the pgvector-backed near-duplicate cache.
type SemanticCacheConfig struct {
	// PostgresDSN is the connection string for the pgvector-enabled
	// database. Empty disables the semantic cache tier entirely.
	PostgresDSN string `yaml:"postgres_dsn"`

	// Threshold is the maximum cosine distance (0 = identical, 2 = opposite)
	// for a stored entry to be served as a near-duplicate hit. Default: 0.05.
	Threshold float64 `yaml:"threshold"`
}

// ModelConfig describes one language-pair translation model.
type ModelConfig struct {
	// Name identifies the model as a "source-target" language pair (e.g.
	// "en-de"). Used both for routing and, when the LLM collaborator is
	// active, for the translation prompt.
	Name string `yaml:"name"`

	// MaxLengthBreak caps subword tokens per segment before hard-wrapping.
	MaxLengthBreak int `yaml:"max_length_break"`

	// MiniBatchWords is the padded-token budget per generated batch.
	MiniBatchWords int `yaml:"mini_batch_words"`

	// Replicas is the number of independent inference backend replicas
	// this model's pool fans batches out to.
	Replicas int `yaml:"replicas"`
}
