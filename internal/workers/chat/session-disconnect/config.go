// internal/workers/chat/session-disconnect/config.go
package sessiondisconnect

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
