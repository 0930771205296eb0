// internal/workers/complaints/file-complaint/config.go
package filecomplaint

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
