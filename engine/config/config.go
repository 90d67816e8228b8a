package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the runtime configuration, loaded from a TOML file.
type Config struct {
	// AssetDir is the root directory watched for animation assets.
	AssetDir string `toml:"asset_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// HotReload toggles the asset file watcher.
	HotReload bool `toml:"hot_reload"`
	// EventMixThreshold suppresses events from clips blended below it.
	EventMixThreshold float32 `toml:"event_mix_threshold"`
	// TickRate is the simulation frequency in ticks per second.
	TickRate int `toml:"tick_rate"`
}

func Default() *Config {
	return &Config{
		AssetDir:  "assets",
		LogLevel:  "info",
		HotReload: true,
		TickRate:  60,
	}
}

// Load reads configuration from path. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = Default().TickRate
	}
	return cfg, nil
}
