// Package config loads runtime configuration for agent runs. Values come
// from the environment, optionally seeded from a .env file, and gate which
// optional tool families an agent run may use. Provider credentials (API
// keys, base URLs) are not handled here; providers read their own env vars
// at construction.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables consulted by [Load]. Unset gates default to enabled.
const (
	EnvWebSearchEnabled = "AGENTKIT_WEB_SEARCH_ENABLED"
	EnvWebFetchEnabled  = "AGENTKIT_WEB_FETCH_ENABLED"
)

// AgentConfig enumerates which optional tool families are enabled for a run.
// It is read-only for the duration of a run: the agent loop and pipelines
// consult the gates when assembling their tool set and never write back.
type AgentConfig struct {
	WebSearchEnabled bool
	WebFetchEnabled  bool
}

// Default returns a config with every tool family enabled.
func Default() AgentConfig {
	return AgentConfig{
		WebSearchEnabled: true,
		WebFetchEnabled:  true,
	}
}

// Load reads the agent configuration from the environment. A .env file in
// the working directory is loaded first when present; a missing file is not
// an error. Unset gates default to enabled.
func Load() AgentConfig {
	_ = godotenv.Load()

	return AgentConfig{
		WebSearchEnabled: boolFromEnv(EnvWebSearchEnabled, true),
		WebFetchEnabled:  boolFromEnv(EnvWebFetchEnabled, true),
	}
}

func boolFromEnv(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
