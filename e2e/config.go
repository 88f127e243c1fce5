package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_URL points the scenario at an already running server.
	// When empty, the test boots a full in-process stack instead.
	ServerURL string `envconfig:"E2E_SERVER_URL"`
	// E2E_BUFFER_SIZE sizes the client event buffers.
	BufferSize int    `envconfig:"E2E_BUFFER_SIZE" default:"64"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"warn"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
