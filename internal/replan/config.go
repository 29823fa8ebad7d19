package replan

import "time"

// Replanner modes.
const (
	ModeLocal = "local"
	ModeHTTP  = "http"
)

// Config selects and configures the replanner.
type Config struct {
	Mode       string            `yaml:"mode" json:"mode"`
	URL        string            `yaml:"url" json:"url,omitempty"`
	Headers    map[string]string `yaml:"headers" json:"headers,omitempty"`
	Timeout    time.Duration     `yaml:"timeout" json:"timeout"`
	MaxRetries int               `yaml:"max_retries" json:"max_retries"`
}

// DefaultConfig replans in-process.
func DefaultConfig() *Config {
	return &Config{
		Mode:       ModeLocal,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}
