// internal/workers/chat/session-connect/config.go
package sessionconnect

import "time"

type Config struct {
	Timeout       time.Duration
	ConnectionTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		ConnectionTTL: 24 * time.Hour,
	}
}
