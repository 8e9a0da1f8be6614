// Package config provides application configuration: defaults,
// overridden by an optional YAML file, overridden by environment
// variables. A .env file is loaded into the environment first when
// present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all server settings.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	LLMBaseURL     string  `yaml:"llm_base_url"`
	LLMAPIKey      string  `yaml:"llm_api_key"`
	LLMModel       string  `yaml:"llm_model"`
	LLMTemperature float64 `yaml:"llm_temperature"`

	RAGServiceURL string `yaml:"rag_service_url"`

	CheckpointDBPath string `yaml:"checkpoint_db_path"`
	GuidesDBPath     string `yaml:"guides_db_path"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ListenAddr:       ":8080",
		LLMModel:         "gpt-4o-mini",
		LLMTemperature:   0.1,
		RAGServiceURL:    "http://localhost:8001",
		CheckpointDBPath: "./data/checkpoints.db",
		GuidesDBPath:     "./data/guides.db",
		LogLevel:         "info",
	}
}

// Load builds the configuration. configPath may be empty; when set,
// the YAML file must exist and parse.
func Load(configPath string) (Config, error) {
	// Best effort: a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", configPath, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.LLMBaseURL, "LLM_BASE_URL")
	setString(&c.LLMAPIKey, "LLM_API_KEY")
	setString(&c.LLMModel, "LLM_MODEL")
	setFloat(&c.LLMTemperature, "LLM_TEMPERATURE")
	setString(&c.RAGServiceURL, "RAG_SERVICE_URL")
	setString(&c.CheckpointDBPath, "CHECKPOINT_DB_PATH")
	setString(&c.GuidesDBPath, "GUIDES_DB_PATH")
	setString(&c.LogLevel, "LOG_LEVEL")
}

// Validate checks invariants that would otherwise surface as obscure
// runtime failures.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.LLMModel == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("llm temperature %v out of range [0, 2]", c.LLMTemperature)
	}
	if c.CheckpointDBPath == "" {
		return fmt.Errorf("checkpoint db path is required")
	}
	if c.GuidesDBPath == "" {
		return fmt.Errorf("guides db path is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
