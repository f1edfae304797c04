package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagSeed    = flag.Int64("seed", 0, "Terrain seed (0 keeps the configured seed)")
	flagTiles   = flag.Int("tiles", 0, "Number of tiles along one side of the grid")
	flagMode    = flag.String("mode", "", "Generation mode: fixed or streaming")
	flagTicks   = flag.Int("ticks", 0, "Viewer steps in streaming mode")
	flagPreview = flag.String("preview", "", "Write a top-down PNG preview to this path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != 0 {
		cfg.Terrain.Seed = *flagSeed
		cfg.Terrain.RandomSeed = false
	}
	if *flagTiles > 0 {
		cfg.Stream.Tiles = *flagTiles
	}
	if *flagMode != "" {
		cfg.Stream.Mode = *flagMode
	}
	if *flagTicks > 0 {
		cfg.Output.Ticks = *flagTicks
	}
	if *flagPreview != "" {
		cfg.Output.Preview = *flagPreview
	}
}
