// internal/workers/notification/notify-match/config.go
package notifymatch

import "time"

type Config struct {
	Timeout      time.Duration
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		FromEmail:    "advising@university.edu",
		EmailEnabled: true,
		SMSEnabled:   false,
	}
}
