// internal/workers/directory/classify-businesses/config.go
package classifybusinesses

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
