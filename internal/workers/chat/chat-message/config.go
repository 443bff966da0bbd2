// internal/workers/chat/chat-message/config.go
package chatmessage

import "time"

type Config struct {
	Timeout      time.Duration
	LLMTimeout   time.Duration
	HistoryLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		LLMTimeout:   30 * time.Second,
		HistoryLimit: 50,
	}
}
