package config

import (
	"os"
	"strconv"
)

// providerKeyEnv maps providers to the environment variables their API
// keys are conventionally exported in
var providerKeyEnv = map[string]string{
	"claude": "ANTHROPIC_API_KEY",
	"openai": "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// ApplyEnv overlays environment variables on cfg. Environment values win
// over config.yaml and secrets.yaml.
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt("CODINGSAM_PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv("CODINGSAM_BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv("CODINGSAM_LOG_LEVEL", cfg.Daemon.LogLevel)
	cfg.Daemon.RateLimit.Enabled = getEnvBool("CODINGSAM_RATE_LIMIT", cfg.Daemon.RateLimit.Enabled)

	cfg.LLM.DefaultProvider = getEnv("CODINGSAM_LLM_PROVIDER", cfg.LLM.DefaultProvider)
	cfg.LLM.Temperature = getEnvFloat("CODINGSAM_LLM_TEMPERATURE", cfg.LLM.Temperature)
	for name, env := range providerKeyEnv {
		p, ok := cfg.LLM.Providers[name]
		if !ok {
			continue
		}
		if key := os.Getenv(env); key != "" {
			p.APIKey = key
			p.Enabled = true
		}
	}
	if p, ok := cfg.LLM.Providers["ollama"]; ok {
		p.URL = getEnv("OLLAMA_URL", p.URL)
	}

	cfg.Scoring.SolvedThreshold = getEnvInt("CODINGSAM_SOLVED_THRESHOLD", cfg.Scoring.SolvedThreshold)

	cfg.Runner.Executor = getEnv("CODINGSAM_RUNNER", cfg.Runner.Executor)
	cfg.Runner.Piston.URL = getEnv("CODINGSAM_PISTON_URL", cfg.Runner.Piston.URL)

	cfg.Storage.Driver = getEnv("CODINGSAM_STORAGE", cfg.Storage.Driver)
	cfg.Storage.Path = getEnv("CODINGSAM_STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.DSN = getEnv("DATABASE_URL", cfg.Storage.DSN)

	cfg.Queue.URL = getEnv("RABBITMQ_URL", cfg.Queue.URL)
	cfg.Queue.Enabled = getEnvBool("CODINGSAM_QUEUE", cfg.Queue.Enabled)
	cfg.Queue.Workers = getEnvInt("CODINGSAM_QUEUE_WORKERS", cfg.Queue.Workers)

	cfg.Problems.Catalog = getEnv("CODINGSAM_PROBLEMS", cfg.Problems.Catalog)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
