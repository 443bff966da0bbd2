// internal/workers/consultation/run-consultation/config.go
package runconsultation

import "time"

type Config struct {
	Timeout       time.Duration
	RetentionDays int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       120 * time.Second,
		RetentionDays: 90,
	}
}
