// internal/workers/consultation/list-results/config.go
package listresults

import "time"

type Config struct {
	Timeout       time.Duration
	RetentionDays int
	MaxResults    int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		RetentionDays: 90,
		MaxResults:    100,
	}
}
