package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"cicada/internal/store"
)

// DefaultBaseURL matches the development address of the chat service.
const DefaultBaseURL = "http://localhost:8000/api"

// Config holds everything configurable about the client.
type Config struct {
	// BaseURL is the root of the chat service, without a trailing slash.
	BaseURL string
	// StateDir holds the token database and log file.
	StateDir string
	// Debug enables debug-level logging.
	Debug bool
}

// Load reads an optional .env file and applies CICADA_* environment
// overrides on top of the defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	stateDir, err := store.DefaultDir()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaseURL:  DefaultBaseURL,
		StateDir: stateDir,
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CICADA_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CICADA_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("CICADA_DEBUG"); v != "" {
		c.Debug, _ = strconv.ParseBool(v)
	}
}
