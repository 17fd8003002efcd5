// internal/workers/onboarding/record-submission/config.go
package recordsubmission

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
