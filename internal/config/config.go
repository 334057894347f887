package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8000"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	LLMAPIKey  string        `env:"LLM_API_KEY"`
	LLMBaseURL string        `env:"LLM_BASE_URL" envDefault:"https://api.x.ai/v1"`
	LLMModel   string        `env:"LLM_MODEL" envDefault:"grok-2-1212"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	SystemPrompt      string `env:"SYSTEM_PROMPT"`
	ContextMaxHistory int    `env:"CONTEXT_MAX_HISTORY" envDefault:"0"`

	RedisAddr           string        `env:"REDIS_ADDR"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`
	ConversationLockTTL time.Duration `env:"CONVERSATION_LOCK_TTL" envDefault:"2m"`

	ChatRateLimit  int           `env:"CHAT_RATE_LIMIT" envDefault:"20"`
	ChatRateWindow time.Duration `env:"CHAT_RATE_WINDOW" envDefault:"1m"`

	CatalogCacheSize int           `env:"CATALOG_CACHE_SIZE" envDefault:"256"`
	CatalogCacheTTL  time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"30s"`

	LogFile  string `env:"LOG_FILE"`
	LogDebug bool   `env:"DEBUG" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
