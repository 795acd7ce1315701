package commons

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"ordersvc/internal/config"
)

// LoadConfig reads a YAML config file. Callers that want environment-driven
// configuration should fall back to config.Load when the file is absent.
func LoadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}
