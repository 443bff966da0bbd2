// internal/workers/analysis/analyze-chat/config.go
package analyzechat

import "time"

type Config struct {
	Timeout    time.Duration
	LLMTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    60 * time.Second,
		LLMTimeout: 30 * time.Second,
	}
}
