// internal/workers/directory/synthesize-reviews/config.go
package synthesizereviews

import "time"

type Config struct {
	Timeout     time.Duration
	ReviewFloor int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     5 * time.Second,
		ReviewFloor: 50,
	}
}
