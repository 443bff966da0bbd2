// internal/workers/matching/match-professor/config.go
package matchprofessor

import "time"

type Config struct {
	CacheTTL      time.Duration
	Timeout       time.Duration
	ReasonTimeout time.Duration
	MaxAlternates int
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL:      5 * time.Minute,
		Timeout:       30 * time.Second,
		ReasonTimeout: 15 * time.Second,
		MaxAlternates: 2,
	}
}
