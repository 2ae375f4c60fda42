package cli

import (
	"os"

	"video-quiz-service/internal/config"
	"video-quiz-service/internal/logging"
)

// loadConfig reads and validates the configuration, then initializes logging.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
