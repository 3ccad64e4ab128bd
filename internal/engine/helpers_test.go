package engine

import (
	"sprawlstats/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workers.Count = 2
	cfg.Workers.Threshold = 5000
	cfg.Cache.JanitorInterval = 0
	cfg.LogLevel = "ERROR"
	return cfg
}
