package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind. Used by
// [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"embeddings": {"openai", "ollama"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.Server.Workers <= 0 {
		cfg.Server.Workers = 4
	}
	if cfg.Cache.Semantic.Threshold <= 0 {
		cfg.Cache.Semantic.Threshold = 0.05
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("llm", cfg.LLM.Name)
	validateProviderName("embeddings", cfg.Embeddings.Name)

	if cfg.LLM.Name == "" && len(cfg.Models) > 0 {
		slog.Warn("no llm provider configured; models will not be able to produce translations")
	}
	if cfg.Cache.Semantic.PostgresDSN != "" && cfg.Embeddings.Name == "" {
		errs = append(errs, errors.New("cache.semantic.postgres_dsn is set but embeddings.name is empty"))
	}

	namesSeen := make(map[string]int, len(cfg.Models))
	for i, m := range cfg.Models {
		prefix := fmt.Sprintf("models[%d]", i)
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if prev, ok := namesSeen[m.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of models[%d]", prefix, m.Name, prev))
		} else {
			namesSeen[m.Name] = i
		}
		if m.MaxLengthBreak <= 0 {
			errs = append(errs, fmt.Errorf("%s.max_length_break must be > 0, got %d", prefix, m.MaxLengthBreak))
		}
		if m.MiniBatchWords <= 0 {
			errs = append(errs, fmt.Errorf("%s.mini_batch_words must be > 0, got %d", prefix, m.MiniBatchWords))
		}
		if m.Replicas <= 0 {
			errs = append(errs, fmt.Errorf("%s.replicas must be > 0, got %d", prefix, m.Replicas))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
