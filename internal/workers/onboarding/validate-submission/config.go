// internal/workers/onboarding/validate-submission/config.go
package validatesubmission

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
